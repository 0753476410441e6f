// ledgerctl is a small command line client for the Ledgerly API. Its main
// use is recording a transaction and waiting for the AI category suggestion
// to come back, which exercises the same polling logic a frontend would run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerly/backend/internal/apiclient"
	"github.com/ledgerly/backend/internal/logger"
	"github.com/ledgerly/backend/internal/poll"
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "API base URL")
		email       = flag.String("email", "", "login email")
		password    = flag.String("password", "", "login password")
		accountID   = flag.String("account", "", "account ID (defaults to the first account)")
		amount      = flag.Int64("amount", 0, "amount in minor units (cents)")
		kind        = flag.String("kind", "expense", "transaction kind: expense or income")
		description = flag.String("desc", "", "transaction description")
		interval    = flag.Duration("poll-interval", 2*time.Second, "suggestion poll interval")
		timeout     = flag.Duration("poll-timeout", 30*time.Second, "suggestion poll deadline")
	)
	flag.Parse()

	log := logger.New()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: ledgerctl -email ... -password ... -amount ... -desc ...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *amount <= 0 {
		log.Fatal().Msg("amount must be a positive number of minor units")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(*baseURL)
	user, err := client.Login(ctx, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
	log.Info().Str("email", user.Email).Msg("logged in")

	acctID, err := resolveAccount(ctx, client, *accountID)
	if err != nil {
		log.Fatal().Err(err).Msg("could not resolve account")
	}

	tx, err := client.CreateTransaction(ctx, apiclient.TransactionRequest{
		Amount:      *amount,
		Kind:        *kind,
		Description: *description,
		Date:        time.Now().UTC(),
		AccountID:   acctID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create transaction failed")
	}
	log.Info().Stringer("transaction_id", tx.ID).Msg("transaction recorded, waiting for suggestion")

	poller := poll.New(client, log, poll.Options{Interval: *interval, Timeout: *timeout})
	result := make(chan string, 1)
	err = poller.Start(ctx, tx.ID,
		func(s poll.Suggestion) {
			result <- fmt.Sprintf("suggested category: %s (confidence %.2f)", s.CategoryName, s.Confidence)
		},
		func() {
			result <- "no suggestion arrived before the deadline"
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("could not start suggestion poll")
	}

	select {
	case msg := <-result:
		fmt.Println(msg)
	case <-ctx.Done():
		poller.Stop()
		log.Info().Msg("cancelled")
	}
}

func resolveAccount(ctx context.Context, client *apiclient.Client, flagValue string) (uuid.UUID, error) {
	if flagValue != "" {
		return uuid.Parse(flagValue)
	}
	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if len(accounts) == 0 {
		return uuid.Nil, fmt.Errorf("no accounts exist; create one first")
	}
	return accounts[0].ID, nil
}
