// Package venue provides liquidity venue quote providers.
//
// The factory creates providers by venue name. Currently supports
// simulated quoting for:
//   - Raydium
//   - Meteora
package venue
