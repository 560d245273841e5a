// Command ctlsim sends simulated show-controller traffic: OSC control
// messages and bundles, and 3-byte control-change packets.
package main

func main() {
	Execute()
}
