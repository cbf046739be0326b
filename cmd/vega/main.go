// Vega is a deal desk policy engine: it evaluates sales deals against
// configurable review rules, routes escalations to the right teams, and
// answers what-if questions about policy changes.
//
// Usage:
//
//	# Start the API server with default configuration
//	vega run
//
//	# Start with a custom configuration file
//	vega run --config /etc/vega/config.yaml
//
//	# Validate configuration and policy files
//	vega validate --config config.yaml
//
//	# Evaluate threshold changes against a batch of deals
//	vega simulate --input simulation.json
//
//	# Populate the store with demo deals
//	vega seed --count 50
//
//	# Show the effective policy
//	vega policy show
package main

func main() {
	Execute()
}
