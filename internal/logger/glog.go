// Package logger holds logging helpers shared by the binaries.
package logger

import (
	"flag"

	"github.com/golang/glog"
)

// InitGlog makes glog write to stderr and marks the Go flag set as parsed so
// glog does not prefix every line with a warning.
func InitGlog() {
	if !flag.Parsed() {
		_ = flag.CommandLine.Parse([]string{})
	}
	if err := flag.Set("logtostderr", "true"); err != nil {
		glog.Info("unable to set logtostderr to true.")
	}
}
