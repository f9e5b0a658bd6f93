// Package core contains the canonical eTIMS client contracts, domain records,
// configuration and error taxonomy. Adapters (transport, stores, auth) depend
// on this package; core must not depend on any of them.
package core
