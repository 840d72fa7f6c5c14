package main

import (
	"flag"
	"math/rand"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/Assurean/rocket-quote-fzia64-sub003/config"
	"github.com/Assurean/rocket-quote-fzia64-sub003/router"
	"github.com/Assurean/rocket-quote-fzia64-sub003/server"
	"github.com/Assurean/rocket-quote-fzia64-sub003/util/task"
)

// Rev holds the binary revision string.
// Set at build time using:
//
//	go build -ldflags "-X main.Rev=`git rev-parse --short HEAD`"
var Rev string

func init() {
	rand.Seed(time.Now().UnixNano())
}

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	if err := serve(Rev, cfg); err != nil {
		glog.Exitf("clickwall failed: %v", err)
	}
}

const configFileName = "clickwall"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(revision string, cfg *config.Configuration) error {
	r, err := router.New(cfg)
	if err != nil {
		return err
	}

	refreshInterval := time.Duration(cfg.History.FetchIntervalSeconds) * time.Second
	historyTickerTask := task.NewTickerTask(refreshInterval, r.History)
	historyTickerTask.Start()

	corsRouter := router.SupportCORS(r)
	server.Listen(cfg, router.NoCache{Handler: corsRouter}, router.Admin(revision, r.History, refreshInterval), r.MetricsEngine)

	historyTickerTask.Stop()
	return nil
}
