package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"time"

	"github.com/igolaizola/igochat"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/peterbourgon/ff/v3/ffyaml"
)

// Build flags
var Version = ""
var Commit = ""
var Date = ""

func main() {
	// Load .env before flags are parsed so variables are visible to ff
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("couldn't load .env: %v", err)
	}

	// Create signal based context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Launch command
	cmd := newCommand()
	if err := cmd.ParseAndRun(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *ffcli.Command {
	fs := flag.NewFlagSet("igochat", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "igochat [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newRunCommand("serve", "launch the chat relay server", ""),
			newRunCommand("ask", "send a single message through the relay", "<message...>"),
			newRunCommand("fetch", "print the extracted content of a web page", "<url>"),
			newRunCommand("search", "print the search results for a query", "<query...>"),
			newVersionCommand(),
		},
	}
}

func newRunCommand(action, help, usage string) *ffcli.Command {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	_ = fs.String("config", "igochat.yaml", "config file (optional)")

	cfg := &igochat.Config{}
	fs.StringVar(&cfg.Addr, "addr", "", "listen address, defaults to :$PORT or :3000 (optional)")
	fs.StringVar(&cfg.Static, "static", "", "directory served at / (optional)")
	fs.StringVar(&cfg.Proxy, "proxy", "", "proxy address for the browser backend (optional)")
	fs.IntVar(&cfg.HistoryTokens, "history-tokens", 0, "drop oldest history turns above this token count, 0 disables it (optional)")

	// GigaChat
	fs.StringVar(&cfg.GigachatCredentials, "gigachat-credentials", "", "gigachat authorization key, falls back to GIGA_CHAT_TOKEN")
	fs.StringVar(&cfg.GigachatAuthURL, "gigachat-auth-url", "", "gigachat oauth endpoint (optional)")
	fs.StringVar(&cfg.GigachatAPIURL, "gigachat-api-url", "", "gigachat api base url (optional)")
	fs.StringVar(&cfg.GigachatScope, "gigachat-scope", "", "gigachat oauth scope (optional)")
	fs.StringVar(&cfg.GigachatModel, "gigachat-model", "GigaChat-Max", "gigachat model")
	fs.Float64Var(&cfg.GigachatTemperature, "gigachat-temperature", 0.7, "gigachat sampling temperature")
	fs.IntVar(&cfg.GigachatMaxTokens, "gigachat-max-tokens", 1000, "gigachat max tokens per response")
	fs.DurationVar(&cfg.GigachatTimeout, "gigachat-timeout", 30*time.Second, "gigachat request timeout")
	fs.IntVar(&cfg.GigachatRetries, "gigachat-retries", 0, "gigachat retries on 429 and 5xx responses (optional)")
	fs.DurationVar(&cfg.GigachatRetryWait, "gigachat-retry-wait", 2*time.Second, "wait between gigachat retries (optional)")
	fs.StringVar(&cfg.GigachatCA, "gigachat-ca", "", "PEM file with the gigachat certificate authority (optional)")
	fs.BoolVar(&cfg.GigachatInsecure, "gigachat-insecure", false, "skip gigachat tls verification (optional)")

	// Search
	fs.StringVar(&cfg.SearchProvider, "search-provider", "perplexity", "search provider (perplexity, google)")
	fs.DurationVar(&cfg.SearchTimeout, "search-timeout", 30*time.Second, "search request timeout")
	fs.StringVar(&cfg.PerplexityKey, "perplexity-key", "", "perplexity api key, falls back to PERPLEXITY_API_KEY")
	fs.StringVar(&cfg.PerplexityModel, "perplexity-model", "sonar", "perplexity model")
	fs.StringVar(&cfg.PerplexityURL, "perplexity-url", "", "perplexity api base url (optional)")
	fs.Float64Var(&cfg.PerplexityTemperature, "perplexity-temperature", 0.2, "perplexity sampling temperature")
	fs.StringVar(&cfg.GoogleKey, "google-key", "", "google api key, see https://developers.google.com/custom-search/v1/introduction")
	fs.StringVar(&cfg.GoogleCX, "google-cx", "", "google cx (search engine ID), see https://cse.google.com/cse/all")

	// Web
	fs.StringVar(&cfg.WebBackend, "web-backend", "http", "page fetch backend (http, browser)")
	fs.DurationVar(&cfg.WebTimeout, "web-timeout", 15*time.Second, "page fetch timeout")
	fs.BoolVar(&cfg.WebInsecure, "web-insecure", false, "skip tls verification when fetching pages (optional)")
	fs.IntVar(&cfg.WebMaxLength, "web-max-length", 5000, "max characters of extracted page content")
	fs.BoolVar(&cfg.WebMarkdown, "web-markdown", false, "extract page content as markdown (optional)")
	fs.StringVar(&cfg.BrowserURL, "browser-remote", "", "browser remote debug address in the format `http://ip:port` (optional)")

	return &ffcli.Command{
		Name:       action,
		ShortUsage: strings.TrimSpace(fmt.Sprintf("igochat %s [flags] %s", action, usage)),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithAllowMissingConfigFile(true),
			ff.WithEnvVarPrefix("IGOCHAT"),
		},
		ShortHelp: help,
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			applyLegacyEnv(cfg)
			switch action {
			case "serve":
				return igochat.Serve(ctx, cfg)
			case "ask":
				return igochat.Ask(ctx, cfg, strings.Join(args, " "))
			case "fetch":
				if len(args) != 1 {
					return fmt.Errorf("fetch requires a single url")
				}
				return igochat.Fetch(ctx, cfg, args[0])
			case "search":
				if len(args) == 0 {
					return fmt.Errorf("search requires a query")
				}
				return igochat.Search(ctx, cfg, strings.Join(args, " "))
			default:
				return fmt.Errorf("unknown action: %s", action)
			}
		},
	}
}

// applyLegacyEnv fills unset values from the variables used by earlier
// deployments.
func applyLegacyEnv(cfg *igochat.Config) {
	if cfg.GigachatCredentials == "" {
		cfg.GigachatCredentials = os.Getenv("GIGA_CHAT_TOKEN")
	}
	if cfg.PerplexityKey == "" {
		cfg.PerplexityKey = os.Getenv("PERPLEXITY_API_KEY")
	}
	if cfg.Addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		cfg.Addr = ":" + port
	}
}

func newVersionCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "igochat version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := Version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if Commit != "" {
				versionFields = append(versionFields, Commit)
			}
			if Date != "" {
				versionFields = append(versionFields, Date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}
