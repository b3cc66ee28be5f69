// Package stub implements an embeddable HTTP/HTTPS stub server for test
// suites. Callers register response rules (handlers) against a server or a
// dual-protocol facade; inbound requests are matched against the rules in
// registration order and answered with the configured status, headers, and
// body. Requests that match no rule receive a fixed 404 response.
package stub
