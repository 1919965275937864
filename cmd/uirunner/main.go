// Package main provides the uirunner CLI, which drives a browser through
// scripted probes and reports the recorded command history.
package main

func main() {
	Execute()
}
