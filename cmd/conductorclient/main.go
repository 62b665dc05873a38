package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"strings"

	"google.golang.org/grpc"

	"github.com/arangodb/pregel-worker/pkg/conductorclient"
	"github.com/arangodb/pregel-worker/pkg/pregelapi"
	"github.com/arangodb/pregel-worker/util"
)

// main boots the two listeners bagel/coord.go's listenClientsgRPC and
// the finishedGSS half of listenExternalRequests used to run
// separately: a gRPC client API (StartExecution/QueryStatus) and a
// plain HTTP receiver for worker completion-report POSTs.
func main() {
	configPath := flag.String("config", "config/conductorclient_config.json", "path to conductor-client JSON config")
	flag.Parse()

	logger := log.New(os.Stderr, "[conductorclient] ", log.LstdFlags)

	var cfg fileConfig
	err := util.ReadJSONConfig(*configPath, &cfg)
	util.CheckErr(err, "conductorclient: could not read config %s: %v\n", *configPath, err)

	srv := conductorclient.NewConductor(logger)

	go func() {
		mux := http.NewServeMux()
		// Workers POST to <coordinatorAddr>/<database>/finishedGSS, so
		// accept the report path under any database prefix.
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/"+pregelapi.FinishedGSSPath) {
				http.NotFound(w, r)
				return
			}
			srv.HandleFinishedGSS(w, r)
		})
		logger.Printf("listening for completion reports on %s", cfg.ReportListenAddr)
		util.CheckErr(http.ListenAndServe(cfg.ReportListenAddr, mux), "conductorclient: report listener exited\n")
	}()

	lis, err := net.Listen("tcp", cfg.ClientAPIListenAddr)
	util.CheckErr(err, "conductorclient: could not listen on %s: %v\n", cfg.ClientAPIListenAddr, err)

	s := grpc.NewServer()
	conductorclient.RegisterServer(s, srv)

	logger.Printf("listening for clients at %s", cfg.ClientAPIListenAddr)
	util.CheckErr(s.Serve(lis), "conductorclient: grpc server exited\n")
}
