package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kickpool/kickpool-go/internal/app"
	"github.com/kickpool/kickpool-go/internal/config"
	"github.com/kickpool/kickpool-go/internal/domain/match"
	"github.com/kickpool/kickpool-go/internal/domain/prediction"
	"github.com/kickpool/kickpool-go/internal/observability"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/session"
	"github.com/kickpool/kickpool-go/internal/store"
)

const usageText = `kickpool <command> [flags]

Commands:
  login        -email -password
  register     -username -email -password
  logout
  whoami
  groups
  group        -id
  join         -code
  teams        [-league]
  fixtures     -league [-season] [-week]
  live         -league
  leaderboard  -group [-season] [-week]
  predict      -group -fixture -home -away
  predictions  -group
  watch        -league
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownUptrace(ctx)
	}()

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	defer func() { _ = stopPyroscope() }()

	pprofSrv := observability.StartPprofServer(cfg, logger)
	defer func() { _ = observability.StopPprofServer(pprofSrv, logger, 5*time.Second) }()

	client, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	if err := run(ctx, client, cfg, os.Args[1], os.Args[2:]); err != nil {
		printNotifications(client)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	printNotifications(client)
}

func run(ctx context.Context, client *app.Client, cfg config.Config, command string, args []string) error {
	switch command {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		_ = fs.Parse(args)
		return client.Auth.Login(ctx, session.Credentials{Email: *email, Password: *password})

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		username := fs.String("username", "", "display name")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		_ = fs.Parse(args)
		return client.Auth.Register(ctx, session.Registration{Username: *username, Email: *email, Password: *password})

	case "logout":
		client.Auth.Logout(ctx)
		return nil

	case "whoami":
		if err := client.Auth.CheckSession(ctx); err != nil {
			return err
		}
		state := client.Store.State()
		if !state.Auth.IsAuthenticated() {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s <%s>\n", state.Auth.User.Username, state.Auth.User.Email)
		return nil

	case "groups":
		if err := client.Groups.FetchGroups(ctx); err != nil {
			return err
		}
		for _, g := range client.Store.State().Groups.UserGroups {
			fmt.Printf("%s\t%s\t%s\t%d members\n", g.ID, g.Name, g.League, g.MemberCount)
		}
		return nil

	case "group":
		fs := flag.NewFlagSet("group", flag.ExitOnError)
		id := fs.String("id", "", "group id")
		_ = fs.Parse(args)
		if err := client.Groups.LoadGroupPage(ctx, *id, client.Matches, client.Leaderboards); err != nil {
			return err
		}
		state := client.Store.State()
		g := state.Groups.CurrentGroup
		fmt.Printf("%s (%s) season %s, week %d\n", g.Name, g.League, state.League.SelectedSeason, state.League.SelectedWeek)
		for _, m := range state.Groups.Members {
			fmt.Printf("  %s\t%s\n", m.Username, m.Role)
		}
		return nil

	case "join":
		fs := flag.NewFlagSet("join", flag.ExitOnError)
		code := fs.String("code", "", "invite code")
		_ = fs.Parse(args)
		_, err := client.Groups.JoinGroup(ctx, *code)
		return err

	case "teams":
		fs := flag.NewFlagSet("teams", flag.ExitOnError)
		league := fs.String("league", "", "league name")
		_ = fs.Parse(args)
		if err := client.Groups.FetchTeams(ctx, *league); err != nil {
			return err
		}
		for _, team := range client.Store.State().Groups.Teams {
			fmt.Printf("%s\t%s\t%s\n", team.ID, team.Name, team.League)
		}
		return nil

	case "fixtures":
		fs := flag.NewFlagSet("fixtures", flag.ExitOnError)
		league := fs.String("league", "", "league name")
		seasonID := fs.String("season", "", "season, e.g. 2024-2025")
		week := fs.Int("week", 0, "week number, 0 for all")
		_ = fs.Parse(args)
		if err := client.Matches.FetchFixtures(ctx, *league, *seasonID, *week); err != nil {
			return err
		}
		for _, f := range client.Store.State().Matches.Fixtures {
			fmt.Printf("%d\t%s vs %s\t%s\t%s\n", f.FixtureID, f.HomeTeam, f.AwayTeam, f.Date.Format(time.RFC822), f.Status)
		}
		return nil

	case "live":
		fs := flag.NewFlagSet("live", flag.ExitOnError)
		league := fs.String("league", "", "league name")
		_ = fs.Parse(args)
		if err := client.Matches.FetchLive(ctx, *league); err != nil {
			return err
		}
		printLive(client.Store.State().Matches.Live)
		return nil

	case "leaderboard":
		fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
		groupID := fs.String("group", "", "group id")
		seasonID := fs.String("season", "", "season")
		week := fs.Int("week", 0, "week number, 0 for season-wide")
		_ = fs.Parse(args)
		if err := client.Leaderboards.FetchLeaderboard(ctx, *groupID, "", *seasonID, *week); err != nil {
			return err
		}
		for _, entry := range client.Store.State().League.Leaderboard {
			fmt.Printf("%2d. %-20s %4d pts  %.1f%%\n", entry.Rank, entry.Username, entry.TotalPoints, entry.Accuracy)
		}
		return nil

	case "predict":
		fs := flag.NewFlagSet("predict", flag.ExitOnError)
		groupID := fs.String("group", "", "group id")
		fixtureID := fs.Int64("fixture", 0, "fixture id")
		home := fs.Int("home", 0, "home score")
		away := fs.Int("away", 0, "away score")
		_ = fs.Parse(args)
		_, err := client.Predictions.CreatePrediction(ctx, prediction.CreateInput{
			FixtureID: *fixtureID,
			GroupID:   *groupID,
			Score1:    *home,
			Score2:    *away,
		})
		return err

	case "predictions":
		fs := flag.NewFlagSet("predictions", flag.ExitOnError)
		groupID := fs.String("group", "", "group id")
		_ = fs.Parse(args)
		if err := client.Predictions.FetchPredictions(ctx, *groupID); err != nil {
			return err
		}
		for _, p := range client.Store.State().Predictions.Items {
			points := "-"
			if p.HasPoints() {
				points = strconv.Itoa(*p.Points)
			}
			fmt.Printf("%s\tfixture %d\t%d:%d\t%s\t%s pts\n", p.ID, p.FixtureID, p.Score1, p.Score2, p.Status, points)
		}
		return nil

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		league := fs.String("league", firstLeague(cfg), "league name")
		_ = fs.Parse(args)
		return watch(ctx, client, *league)

	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", command)
	}
}

// watch polls live scores until interrupted, printing the board on
// every store change.
func watch(ctx context.Context, client *app.Client, league string) error {
	unsubscribe := client.Store.Subscribe(func(s store.State) {
		printLive(s.Matches.Live)
	})
	defer unsubscribe()

	client.Poller.Start(ctx, league)
	defer client.Poller.Stop()

	fmt.Printf("watching %s, ctrl-c to stop\n", league)
	<-ctx.Done()
	return nil
}

func printLive(live []match.Fixture) {
	if len(live) == 0 {
		fmt.Println("no matches in play")
		return
	}
	for _, f := range live {
		home, away := "?", "?"
		if f.HomeScore != nil {
			home = strconv.Itoa(*f.HomeScore)
		}
		if f.AwayScore != nil {
			away = strconv.Itoa(*f.AwayScore)
		}
		fmt.Printf("%s %s-%s %s\t%s %d'\n", f.HomeTeam, home, away, f.AwayTeam, f.Status, f.Minute)
	}
}

func firstLeague(cfg config.Config) string {
	if len(cfg.WatchedLeagues) > 0 {
		return cfg.WatchedLeagues[0]
	}
	return "Premier League"
}

func printNotifications(client *app.Client) {
	for _, item := range client.Store.State().Notifications.Items {
		fmt.Printf("[%s] %s\n", item.Type, item.Message)
	}
}
