// Command tillbook is a terminal client for the Tillbook API.
//
//	tillbook receipts [-limit n]
//	tillbook scan [-customer name] [-mobile number] [-commit]
//
// The server URL and credentials come from TILLBOOK_URL, TILLBOOK_EMAIL and
// TILLBOOK_PASSWORD (or a .env file).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/client"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"github.com/sangkips/tillbook-api/pkg/scanner"
	"github.com/sangkips/tillbook-api/pkg/session"
	"github.com/spf13/viper"
)

type settings struct {
	URL      string
	Email    string
	Password string
	PageSize int
	Timeout  time.Duration
}

func loadSettings() settings {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	viper.SetDefault("TILLBOOK_URL", "http://localhost:8080")
	viper.SetDefault("PAGE_SIZE", 10)
	viper.SetDefault("PAGE_TIMEOUT_SECONDS", 15)

	return settings{
		URL:      viper.GetString("TILLBOOK_URL"),
		Email:    viper.GetString("TILLBOOK_EMAIL"),
		Password: viper.GetString("TILLBOOK_PASSWORD"),
		PageSize: viper.GetInt("PAGE_SIZE"),
		Timeout:  time.Duration(viper.GetInt("PAGE_TIMEOUT_SECONDS")) * time.Second,
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tillbook <receipts|scan> [flags]")
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	cfg := loadSettings()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.URL)
	sess := session.New(api)
	sess.Init()
	defer sess.Close()

	if _, err := api.Login(ctx, cfg.Email, cfg.Password); err != nil {
		log.Fatalf("Login failed: %s", message(err))
	}
	identity, _ := sess.Current()
	log.Printf("Signed in to %s as %s", identity.StoreName, identity.Email)

	var err error
	switch os.Args[1] {
	case "receipts":
		err = runReceipts(ctx, api, cfg, os.Args[2:])
	case "scan":
		err = runScan(ctx, api, os.Args[2:])
	default:
		usage()
	}

	if logoutErr := api.Logout(context.Background()); logoutErr != nil {
		log.Printf("Logout failed: %s", message(logoutErr))
	}
	if err != nil {
		log.Fatal(message(err))
	}
}

func message(err error) string {
	if appErr := apperror.GetAppError(err); appErr != nil {
		msg := appErr.Message
		for _, fe := range appErr.Errors {
			msg += fmt.Sprintf("\n  %s: %s", fe.Field, fe.Message)
		}
		if appErr.Retryable {
			msg += " (retryable)"
		}
		return msg
	}
	return err.Error()
}

func runReceipts(ctx context.Context, api *client.Client, cfg settings, args []string) error {
	fs := flag.NewFlagSet("receipts", flag.ExitOnError)
	limit := fs.Int("limit", cfg.PageSize, "receipts per page")
	_ = fs.Parse(args)

	p := pagination.NewPaginator(api.ReceiptFetcher(), entity.Receipt.Cursor, pagination.PaginatorOptions{
		PageSize: *limit,
		Timeout:  cfg.Timeout,
	})
	if err := p.FetchFirstPage(ctx); err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	shown := 0
	for {
		list := p.CurrentList()
		for _, r := range list[shown:] {
			printReceipt(os.Stdout, r)
		}
		shown = len(list)

		if shown == 0 {
			fmt.Println("No receipts yet.")
			return nil
		}
		if p.Exhausted() {
			fmt.Printf("-- end of list (%d receipts) --\n", shown)
			return nil
		}

		fmt.Print("Load more? [Y/n] ")
		answer, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a == "n" || a == "no" || errors.Is(err, io.EOF) {
			return nil
		}
		if err := p.FetchNextPage(ctx); err != nil {
			// The list is unchanged, so the same prompt retries the page.
			log.Printf("Could not load more: %s", message(err))
		}
	}
}

func printReceipt(w io.Writer, r entity.Receipt) {
	created := time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04")
	fmt.Fprintf(w, "%s  %-20s %3d items  %10s  %s\n", created, r.CustomerName, r.ItemCount(), r.Total.StringFixed(2), r.ID)
}

func runScan(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	customer := fs.String("customer", "", "customer name for the receipt")
	mobile := fs.String("mobile", "", "customer mobile number")
	commit := fs.Bool("commit", false, "commit the draft when input ends")
	cooldown := fs.Duration("cooldown", scanner.DefaultCooldown, "ignore repeats of the same code within this window")
	_ = fs.Parse(args)

	draft, err := api.OpenDraft(ctx)
	if err != nil {
		return err
	}
	log.Printf("Draft %s open. Scan barcodes, one per line; end input with Ctrl-D.", draft.ID)

	sc := scanner.NewLineScanner(os.Stdin)
	events, err := scanner.WithCooldown(sc, *cooldown).Scan(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		updated, err := api.ScanItem(ctx, draft.ID, ev.Code)
		if err != nil {
			log.Printf("%s: %s", ev.Code, message(err))
			continue
		}
		draft = updated
		fmt.Printf("%-16s %3d items  total %s\n", ev.Code, draft.ItemCount, draft.Total.StringFixed(2))
	}
	if err := sc.Err(); err != nil {
		return err
	}

	if !*commit {
		log.Printf("Draft %s kept with %d items.", draft.ID, draft.ItemCount)
		return nil
	}
	return commitDraft(context.Background(), api, draft.ID, *customer, *mobile)
}

// commitDraft retries transient failures with the same idempotency key, so
// a commit that landed but whose response was lost is not recorded twice.
func commitDraft(ctx context.Context, api *client.Client, draftID uuid.UUID, customer, mobile string) error {
	key := uuid.NewString()
	backoff := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		receipt, err := api.CommitDraft(ctx, draftID, customer, mobile, key)
		if err == nil {
			fmt.Println("Receipt recorded:")
			printReceipt(os.Stdout, *receipt)
			return nil
		}
		if !apperror.IsRetryable(err) || attempt == 3 {
			return err
		}
		log.Printf("Commit failed, retrying: %s", message(err))
		time.Sleep(backoff)
		backoff *= 2
	}
}
