// Package util carries the small set of teacher helpers that survive
// the transport rewrite from net/rpc to HTTP/gRPC: JSON config
// loading and the fail-fast CheckErr idiom used for unrecoverable
// local setup errors (config missing, DB unreachable at boot).
// DialTCPCustom/DialRPC and the uint64 vertex hashing in
// util/hashing.go are dropped, since the worker now speaks HTTP/gin
// and hashes string vertex IDs via graphstore.ShardOf.
package util

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadJSONConfig loads filename and unmarshals it into config.
func ReadJSONConfig(filename string, config interface{}) error {
	configData, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(configData, config)
}

// CheckErr exits the process on an unrecoverable local setup error,
// matching the teacher's fail-fast style for errors that have no
// caller to report back to (config missing, DB unreachable at boot).
func CheckErr(err error, errfmsg string, fargs ...interface{}) {
	if err != nil {
		fmt.Fprintf(os.Stderr, errfmsg, fargs...)
		os.Exit(1)
	}
}

// GetConfigPath joins filename under the conventional config/ directory.
func GetConfigPath(filename string) string {
	return fmt.Sprintf("config/%s", filename)
}
