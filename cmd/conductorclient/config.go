package main

// fileConfig mirrors bagel/coord.go's CoordConfig (ClientAPIListenAddr,
// WorkerAPIListenAddr, ExternalAPIListenAddr), trimmed to the two
// listeners this facade actually runs: a gRPC client API and the plain
// HTTP finishedGSS receiver workers POST completion reports to.
type fileConfig struct {
	ClientAPIListenAddr string `json:"clientApiListenAddr"`
	ReportListenAddr    string `json:"reportListenAddr"`
}
