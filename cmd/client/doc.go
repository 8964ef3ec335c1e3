// Package main is a terminal client for a Copilot CLI bridge.
//
// It runs the same session manager as the phone app: one WebSocket to the
// bridge, an auth envelope when a token is configured, a bounded number of
// retries on transient failures and a state line for every transition.
//
// Resolution of the bridge address, first match wins:
//  1. -url
//  2. -profile from -profiles (or the file's default profile)
//  3. COPILOT_URL
//
// Usage:
//
//	./client -url ws://192.168.1.20:3000 -token s3cret
//	./client -profiles ~/.config/copilot/profiles.yaml -profile laptop
//	./client -url wss://bridge.example -probe
//
// Lines typed at the prompt are sent as chat; see package console for the
// slash commands handled locally.
package main
