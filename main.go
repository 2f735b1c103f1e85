package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deemkeen/linkodon/activitypub"
	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/util"
	"github.com/deemkeen/linkodon/web"
)

func main() {

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	db.GetDB()

	// Start the delivery worker if federation is enabled
	if conf.Conf.WithAp {
		activitypub.StartDeliveryWorker()
	}

	startServing(conf)
}

func startServing(conf *util.AppConfig) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := web.Router(conf); err != nil {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping server")
}
