// Package console is the line-oriented front end of the terminal client.
//
// Renderer prints session notifications, Console maps typed lines to session
// calls. Lines starting with one of the client's slash commands are handled
// locally:
//
//	/quit /exit        leave
//	/status            state, URL and session id
//	/session [id]      show or override the session id
//	/reconnect         disconnect and connect again
//	/health            probe the bridge's /health endpoint
//	/ctrl-c /ctrl-d    send ^C or ^D
//	/tab /esc /enter   send a key token
//	/up /down /left /right
//
// Anything else, including other slash commands, is sent to the CLI as chat.
package console
