// Package policy decides whether a discovered URL may be fetched.
// It combines scheme and file-extension checks, robots.txt rules, a
// categorical domain blacklist, and the external-domain quota. Denials
// are normal outcomes carrying a categorical reason, never errors: a
// denied link is still recorded in the link graph, just not traversed.
package policy
