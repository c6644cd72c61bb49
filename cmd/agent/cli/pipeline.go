package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"bewerbungsagent/internal/browser"
	"bewerbungsagent/internal/collect"
	"bewerbungsagent/internal/config"
	"bewerbungsagent/internal/jobstate"
	"bewerbungsagent/internal/notify"
	"bewerbungsagent/internal/reconcile"
	"bewerbungsagent/internal/score"
	"bewerbungsagent/internal/scraper"
	"bewerbungsagent/internal/scraper/jobsch"
	"bewerbungsagent/internal/scraper/jobscout"
	"bewerbungsagent/internal/scraper/jobup"
	"bewerbungsagent/internal/tracker"
)

const emptySearchTTL = 24 * time.Hour

// pipelineOptions are the per-invocation switches on top of the config.
type pipelineOptions struct {
	dryRun bool
	// sendOpen mails every open record instead of only due reminders.
	sendOpen bool
	// includeClosed keeps closed records visible in the tracker worksheet.
	includeClosed bool
}

// profileFromConfig folds the keyword lists into the scoring profile.
// Title variants count as positives so both languages score.
func profileFromConfig(cfg *config.Config) score.Profile {
	positives := append([]string{}, cfg.Search.Keywords...)
	positives = append(positives, cfg.Search.TitleVariantsDE...)
	positives = append(positives, cfg.Search.TitleVariantsEN...)
	return score.Profile{
		Positives: positives,
		Negatives: cfg.Search.NegativeKeywords,
		Blocked:   cfg.Search.BlockedKeywords,
		Required:  cfg.Search.RequiredKeywords,
		Locations: cfg.Search.Locations,
	}
}

// buildScrapers assembles the portal adapters named in the config. The
// jobscout24 adapter needs a browser; when launching it fails the portal
// is skipped with a warning instead of failing the run. The returned
// cleanup must run after scraping.
func buildScrapers(cfg *config.Config) ([]scraper.Scraper, func(), error) {
	client := scraper.NewClient(cfg.Search.RequestsPerSec)
	maxPages := cfg.Search.MaxPages
	limit := cfg.Search.PerSearchLimit

	var scrapers []scraper.Scraper
	cleanup := func() {}

	for _, portal := range cfg.Search.Portals {
		switch strings.ToLower(strings.TrimSpace(portal)) {
		case "jobs.ch":
			scrapers = append(scrapers, jobsch.New(client, maxPages, limit))
		case "jobup.ch":
			scrapers = append(scrapers, jobup.New(client, maxPages, limit))
		case "jobscout24.ch":
			mgr, err := browser.NewManager(cfg.Search.Headless)
			if err != nil {
				log.Warn().Err(err).Msg("browser launch failed, skipping jobscout24.ch")
				continue
			}
			cookies, err := browser.LoadCookies(cfg.Cookies)
			if err != nil {
				log.Debug().Str("path", cfg.Cookies).Err(err).Msg("no cookies loaded")
			}
			bctx, err := mgr.NewContext(cookies)
			if err != nil {
				log.Warn().Err(err).Msg("browser context failed, skipping jobscout24.ch")
				mgr.Close()
				continue
			}
			scrapers = append(scrapers, jobscout.New(bctx, limit))
			prev := cleanup
			cleanup = func() {
				prev()
				if err := mgr.Close(); err != nil {
					log.Warn().Err(err).Msg("browser close failed")
				}
			}
		default:
			log.Warn().Str("portal", portal).Msg("unknown portal in config, skipping")
		}
	}
	if len(scrapers) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("no usable portals configured")
	}
	return scrapers, cleanup, nil
}

// scrape runs the collection pass and returns the scored, deduplicated
// batch.
func scrape(ctx context.Context, cfg *config.Config) ([]scraper.Posting, error) {
	scrapers, cleanup, err := buildScrapers(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cache := collect.NewEmptySearchCache(cfg.State.CachePath, emptySearchTTL)
	rows := collect.Run(ctx, collect.Params{
		Scrapers:  scrapers,
		Keywords:  cfg.Search.Keywords,
		Locations: cfg.Search.Locations,
		Profile:   profileFromConfig(cfg),
		Commute:   score.ParseCommuteMap(cfg.Search.CommuteMap),
		Workers:   2,
		Cache:     cache,
	})
	cache.Save()
	return rows, nil
}

// runPipeline is one full pass: lock, load, fold tracker marks back,
// scrape, reconcile, notify, persist.
func runPipeline(ctx context.Context, cfg *config.Config, opts pipelineOptions) error {
	lock, err := reconcile.AcquireLock(cfg.State.LockPath, time.Duration(cfg.State.LockTTLMin)*time.Minute)
	if err != nil {
		return err
	}
	defer lock.Release()

	now := time.Now().UTC()
	stamp := jobstate.FormatTS(now)

	loaded := jobstate.LoadState(cfg.State.StatePath, cfg.State.SeenPath, stamp)
	state := loaded.State
	if loaded.Err != nil {
		log.Warn().Err(loaded.Err).Msg("state unreadable, starting fresh")
	}
	if loaded.MigratedFromSeen {
		log.Info().Int("records", len(state)).Msg("migrated legacy seen_jobs into state")
	}

	trackerRows, err := tracker.Load(cfg.State.TrackerPath)
	if err != nil {
		log.Warn().Err(err).Msg("tracker unreadable, continuing without marks")
		trackerRows = tracker.Rows{}
	}
	markUpdates := tracker.ApplyMarks(state, trackerRows, stamp)
	aggregatorClosed := reconcile.CloseAggregators(state, cfg.State.AggregatorSources)

	rows, err := scrape(ctx, cfg)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		// A broken scrape must not close the whole state by absence.
		log.Warn().Msg("no rows scraped, keeping state untouched")
		stateChanged := loaded.MigratedFromSeen || markUpdates > 0 || aggregatorClosed > 0
		return finishWithoutRows(cfg, state, trackerRows, stateChanged, opts.includeClosed)
	}

	payload := collect.PayloadFilter(rows, cfg.State.MinScoreMail)

	res := reconcile.Merge(payload, state, stamp, now, reconcile.Options{
		CloseMissingRuns: cfg.State.CloseMissingRuns,
		CloseNotSeenDays: cfg.State.CloseNotSeenDays,
	})
	groups := reconcile.Classify(state, res.Seen, now, cfg.State.ReminderDays, cfg.State.DailyReminders)

	newJobs, reminders := dispatchGroups(groups, opts.sendOpen)

	mailSent := false
	if opts.dryRun {
		log.Info().Int("new", len(newJobs)).Int("reminders", len(reminders)).Msg("dry run, skipping delivery")
	} else if len(newJobs) > 0 || len(reminders) > 0 {
		mailSent = deliver(cfg, newJobs, reminders)
	}

	if mailSent {
		reconcile.MarkNotified(newJobs, stamp)
		reconcile.MarkNotified(reminders, stamp)
	}

	if err := jobstate.SaveState(state, cfg.State.StatePath); err != nil {
		return err
	}
	if err := tracker.Write(state, cfg.State.TrackerPath, trackerRows, opts.includeClosed); err != nil {
		return err
	}

	log.Info().
		Int("scraped_total", len(rows)).
		Int("payload_total", len(payload)).
		Int("state_total", len(state)).
		Int("newly_added", res.NewlyAdded).
		Int("active_seen", res.Seen.Cardinality()).
		Int("marked_closed", res.MarkedClosed).
		Int("aggregators_closed", aggregatorClosed).
		Int("tracker_marks", markUpdates).
		Int("mailed_new", len(newJobs)).
		Int("mailed_reminders", len(reminders)).
		Int("applied", state.CountStatus(jobstate.StatusApplied)).
		Int("ignored", state.CountStatus(jobstate.StatusIgnored)).
		Bool("dry_run", opts.dryRun).
		Bool("mail_sent", mailSent).
		Msg("run complete")
	return nil
}

// dispatchGroups picks what goes into the digest. In send-open mode the
// whole open set goes out as one list; the new records are already part
// of it, so keeping a separate new section would mail them twice.
func dispatchGroups(groups reconcile.Groups, sendOpen bool) (newJobs, reminders []*jobstate.Record) {
	if sendOpen {
		return groups.Open, nil
	}
	return groups.New, groups.Reminder
}

// finishWithoutRows ends an empty run. The tracker is rewritten so
// manual edits survive, but the state file is only touched when the
// marks or a migration actually changed it.
func finishWithoutRows(cfg *config.Config, state jobstate.State, trackerRows tracker.Rows, stateChanged, includeClosed bool) error {
	if stateChanged {
		if err := jobstate.SaveState(state, cfg.State.StatePath); err != nil {
			return err
		}
	}
	return tracker.Write(state, cfg.State.TrackerPath, trackerRows, includeClosed)
}

// deliver fans the digest out to every configured channel. Only a
// successful email marks the records notified; the push channels are
// best effort.
func deliver(cfg *config.Config, newJobs, reminders []*jobstate.Record) bool {
	mailSent, err := notify.NewMailer(cfg.Email).SendJobAlert(newJobs, reminders)
	if err != nil {
		log.Error().Err(err).Msg("email delivery failed")
	}

	summary := notify.PlainSummary(newJobs, reminders, 3)
	if _, err := notify.NewWhatsApp(cfg.WhatsApp).Send(summary); err != nil {
		log.Warn().Err(err).Msg("whatsapp delivery failed")
	}

	tg, err := notify.NewTelegram(cfg.Telegram)
	if err != nil {
		log.Warn().Err(err).Msg("telegram init failed")
	} else if tg != nil {
		if err := tg.SendSummary(summary); err != nil {
			log.Warn().Err(err).Msg("telegram summary failed")
		} else if err := tg.SendNewJobs(newJobs, 5); err != nil {
			log.Warn().Err(err).Msg("telegram cards failed")
		}
	}
	return mailSent
}
