// Command riskctl runs the risk engine once against a portfolio file and
// prints the result as JSON.
//
// Examples:
//
//	riskctl report --portfolio positions.yaml
//	riskctl stress --portfolio positions.yaml --scenario covid_crash_2020
//	riskctl simulate --portfolio positions.yaml --paths 5000 --horizon 63 --seed 7
//	riskctl regime --vix 38 --trend -0.12
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
