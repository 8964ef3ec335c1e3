// Package profiles reads the list of saved bridges the terminal client can
// connect to.
//
// YAML:
//
//	profiles:
//	  - name: laptop
//	    url: ws://192.168.1.20:3000
//	    token: ${COPILOT_TOKEN}
//	    default: true
//
// TOML:
//
//	[[profiles]]
//	name = "laptop"
//	url = "ws://192.168.1.20:3000"
//
// Files are read-only here; nothing in the client writes them.
package profiles
