// main package for the campaignctl CLI
package main

import (
	"flag"
	"os"
	_ "time/tzdata"

	"github.com/driveshare/marketing-dispatch/internal/cli"
	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

func main() {
	defer glog.Flush()

	if err := cli.Command().Execute(); err != nil {
		glog.Error(err)
		os.Exit(1)
	}
}

func init() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	if err := flag.Set("logtostderr", "true"); err != nil {
		glog.Infof("Unable to set logtostderr to true")
	}
}
