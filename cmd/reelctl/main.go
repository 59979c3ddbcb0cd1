package main

import (
	"fmt"
	"log"
	"os"

	"github.com/c-bata/go-prompt"

	"reelchat/internal/client"
	"reelchat/internal/config"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("REELCHAT_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sh := newShell(client.New(cfg.Client.BaseURL, cfg.Client.Timeout), cfg)
	defer sh.stopWatch()

	fmt.Println("Welcome to reelchat")
	fmt.Println("Type 'help' to see available commands")

	p := prompt.New(
		sh.execute,
		sh.complete,
		prompt.OptionPrefix("> "),
		prompt.OptionLivePrefix(sh.livePrefix),
		prompt.OptionTitle("reelctl"),
		prompt.OptionHistory([]string{}),
	)
	p.Run()
}
