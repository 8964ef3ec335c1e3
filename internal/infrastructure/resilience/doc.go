/*
Package resilience provides the bounded retry budget used when a connection
attempt fails with a transient error.

# Overview

Retries are deliberately simple: a fixed number of attempts separated by a
flat delay. There is no exponential growth and no jitter. A budget belongs to
one connect lineage, the chain of automatic retries that follows a single
caller-initiated connect, and is refilled after every successful connection.

# Usage

	budget := resilience.DefaultPolicy().NewBudget()

	for {
		err := dial()
		if err == nil {
			budget.Reset()
			break
		}
		delay, ok := budget.Next()
		if !ok {
			return err
		}
		time.Sleep(delay)
	}

Which errors are worth retrying is decided by the caller; this package only
counts.
*/
package resilience
