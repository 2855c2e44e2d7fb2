// This program talks to a relay node to build and finalize cross-chain
// proofs and verifies proofs offline.
package main

import "github.com/ardanlabs/chainrelay/app/tooling/relay/cmd"

func main() {
	cmd.Execute()
}
