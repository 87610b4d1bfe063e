// Package api provides the OKX v5 REST client used by the exporter.
//
// REST endpoints:
//   - Production: https://www.okx.com
//   - Demo trading: same host, requests carry x-simulated-trading: 1
//
// Every response is wrapped in {code, msg, data}; a code other than "0" is
// an application error and is never retried. HTTP 429/5xx and connection
// failures are retried with exponential backoff.
package api
