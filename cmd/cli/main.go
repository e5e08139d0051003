package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aurastream/auramatch/internal/config"
	"github.com/aurastream/auramatch/pkg/auramatch"
	"github.com/aurastream/auramatch/pkg/auramatch/tuning"
	"github.com/aurastream/auramatch/pkg/logger"
	"github.com/aurastream/auramatch/pkg/utils"
)

var cfg *config.Config

// createService creates a new AuraMatch service with configured options
func createService() (auramatch.Service, error) {
	return auramatch.NewService(
		auramatch.WithDBPath(cfg.Database.Path),
		auramatch.WithTempDir(cfg.Audio.TempDir),
		auramatch.WithSampleRate(cfg.Audio.SampleRate),
		auramatch.WithPeakPoints(cfg.Audio.PeakPoints),
		auramatch.WithStepSize(cfg.Matcher.StepSize),
		auramatch.WithResultLimit(cfg.Matcher.ResultLimit),
	)
}

func mustService() auramatch.Service {
	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		logger.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return svc
}

func main() {
	log := logger.GetLogger()

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	// Global flags must precede the command.
	flag.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "Path to the SQLite database file")
	flag.StringVar(&cfg.Audio.TempDir, "temp", cfg.Audio.TempDir, "Directory for temporary audio conversion files")
	flag.IntVar(&cfg.Audio.SampleRate, "rate", cfg.Audio.SampleRate, "Audio sample rate for processing")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "add":
		handleAdd(args)
	case "import":
		handleImport(args)
	case "similar":
		handleSimilar(args)
	case "list":
		handleList()
	case "delete":
		handleDelete(args)
	case "tuning":
		handleTuning(args)
	case "render":
		handleRender(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// splitPositional separates the leading positional argument from trailing flags.
func splitPositional(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", args
	}
	return args[0], args[1:]
}

func handleAdd(args []string) {
	audioPath, flagArgs := splitPositional(args)

	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	title := addCmd.String("title", "", "Track title (defaults to the file's tags)")
	artist := addCmd.String("artist", "", "Artist name (defaults to the file's tags)")
	addCmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("Error: audio file path required")
		fmt.Println("Usage: auramatch add <audio_file> [--title <title>] [--artist <artist>]")
		os.Exit(1)
	}

	svc := mustService()
	defer svc.Close()

	fmt.Println("🎵 Processing audio file...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	trackID, err := svc.AddTrack(ctx, audioPath, *title, *artist)
	if err != nil {
		fmt.Printf("\n❌ Failed to add track: %v\n", err)
		logger.Errorf("AddTrack failed: %v", err)
		os.Exit(1)
	}

	track, err := svc.GetTrack(trackID)
	if err != nil {
		fmt.Printf("\n❌ Failed to reload track: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Successfully added track to catalog!")
	fmt.Printf("   ID:       %s\n", track.ID)
	fmt.Printf("   Title:    %s\n", track.Title)
	fmt.Printf("   Artist:   %s\n", track.Artist)
	fmt.Printf("   Duration: %s\n", formatMs(float64(track.DurationMs)))
	fmt.Printf("   Points:   %d\n", len(track.PeakData))
}

func handleImport(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: auramatch import <tracks.json>")
		os.Exit(1)
	}

	entries, err := loadImportFile(args[0])
	if err != nil {
		fmt.Printf("❌ Failed to read import file: %v\n", err)
		os.Exit(1)
	}

	svc := mustService()
	defer svc.Close()

	imported, skipped := 0, 0
	for _, e := range entries {
		id, err := svc.ImportTrack(e.Title, e.Artist, e.DurationMs(), e.PeakSeries())
		if err != nil {
			skipped++
			fmt.Printf("⚠️  Skipped %q: %v\n", e.Title, err)
			continue
		}
		imported++
		logger.Debugf("Imported %q as %s", e.Title, id)
	}

	fmt.Printf("\n✅ Imported %d track(s), skipped %d\n", imported, skipped)
}

func handleSimilar(args []string) {
	trackID, flagArgs := splitPositional(args)

	simCmd := flag.NewFlagSet("similar", flag.ExitOnError)
	start := simCmd.String("start", "", "Slice start (m:ss, seconds, or ms; default 0:00)")
	end := simCmd.String("end", "", "Slice end (m:ss, seconds, or ms; default end of track)")
	step := simCmd.Int("step", 0, "Window step in peak points (default from config)")
	limit := simCmd.Int("limit", 0, "Maximum results (default from config)")
	simCmd.Parse(flagArgs)

	if trackID == "" {
		fmt.Println("Usage: auramatch similar <track_id> [--start 0:30] [--end 0:45] [--step 5] [--limit 10]")
		os.Exit(1)
	}

	svc := mustService()
	defer svc.Close()

	ref, err := svc.GetTrack(trackID)
	if err != nil {
		fmt.Printf("❌ Track not found (ID: %s)\n", trackID)
		os.Exit(1)
	}

	startMs := float64(parseOffset(*start, 0))
	endMs := float64(parseOffset(*end, ref.DurationMs))

	fmt.Printf("🔍 Searching for sections like \"%s\" %s-%s...\n", ref.Title, formatMs(startMs), formatMs(endMs))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := svc.FindSimilar(ctx, auramatch.SimilarityQuery{
		TrackID:  trackID,
		StartMs:  startMs,
		EndMs:    endMs,
		StepSize: *step,
		Limit:    *limit,
	})
	if err != nil {
		fmt.Printf("\n❌ Similarity search failed: %v\n", err)
		logger.Errorf("FindSimilar failed: %v", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Println("\n❌ No similar sections found")
		return
	}

	fmt.Printf("\n✅ Found %d similar section(s):\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%d. \"%s\" by %s (ID: %s)\n", i+1, r.Title, r.Artist, r.TrackID)
		fmt.Printf("   Score: %.1f%% | Section: %s-%s\n\n",
			r.Score*100, formatMs(r.MatchStartMs), formatMs(r.MatchEndMs))
	}
}

// parseOffset reads a time offset; empty means fallback.
func parseOffset(value string, fallback int) int {
	value = strings.TrimSpace(value)
	switch value {
	case "":
		return fallback
	case "0", "0:00":
		return 0
	}
	return utils.ParseDurationMs(value)
}

func formatMs(ms float64) string {
	total := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func handleList() {
	svc := mustService()
	defer svc.Close()

	tracks, err := svc.ListTracks()
	if err != nil {
		fmt.Printf("❌ Failed to list tracks: %v\n", err)
		logger.Errorf("ListTracks failed: %v", err)
		os.Exit(1)
	}

	if len(tracks) == 0 {
		fmt.Println("\n📭 No tracks in catalog")
		return
	}

	fmt.Printf("\n📚 Found %d track(s):\n\n", len(tracks))
	for i, t := range tracks {
		fmt.Printf("%d. \"%s\" by %s (ID: %s)\n", i+1, t.Title, t.Artist, t.ID)
		if t.DurationMs > 0 {
			fmt.Printf("   Duration: %s\n", formatMs(float64(t.DurationMs)))
		}
		fmt.Println()
	}
}

func handleDelete(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: auramatch delete <track_id>")
		os.Exit(1)
	}
	trackID := args[0]

	svc := mustService()
	defer svc.Close()

	track, err := svc.GetTrack(trackID)
	if err != nil {
		fmt.Printf("❌ Track not found (ID: %s)\n", trackID)
		os.Exit(1)
	}

	if err := svc.DeleteTrack(trackID); err != nil {
		fmt.Printf("❌ Failed to delete track: %v\n", err)
		logger.Errorf("DeleteTrack failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Successfully deleted track:\n")
	fmt.Printf("   ID:     %s\n", track.ID)
	fmt.Printf("   Title:  %s\n", track.Title)
	fmt.Printf("   Artist: %s\n", track.Artist)
}

func handleTuning(args []string) {
	tuneCmd := flag.NewFlagSet("tuning", flag.ExitOnError)
	hour := tuneCmd.Int("hour", -1, "Hour of day 0-23 (default: now)")
	tuneCmd.Parse(args)

	t := tuning.CurrentTuning(time.Now())
	h := time.Now().Hour()
	if *hour >= 0 {
		h = *hour
		t = tuning.FrequencyForHour(h)
	}

	fmt.Printf("🎚  %02d:00 -> %s (pitch ratio %.4f)\n", h%24, t, tuning.PitchRatio(t))
}

func handleRender(args []string) {
	audioPath, flagArgs := splitPositional(args)

	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	outDir := renderCmd.String("out", ".", "Directory for the rendered streams")
	only := renderCmd.String("tuning", "", "Render a single tuning (440hz, 432hz or 528hz)")
	renderCmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("Error: audio file path required")
		fmt.Println("Usage: auramatch render <audio_file> [--out <dir>] [--tuning <440hz|432hz|528hz>]")
		os.Exit(1)
	}

	var tunings []tuning.Tuning
	if *only != "" {
		tunings = append(tunings, tuning.Tuning(strings.ToLower(*only)))
	}

	svc := mustService()
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rendered, err := svc.RenderTunings(ctx, audioPath, *outDir, tunings...)
	for _, t := range tuning.All {
		if path, ok := rendered[t]; ok {
			fmt.Printf("🎚  %s -> %s\n", t, path)
		}
	}
	if err != nil {
		fmt.Printf("❌ Render failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("AuraMatch - Waveform Similarity CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>        Path to SQLite database (env: AURA_DB_PATH, default: auramatch.sqlite3)")
	fmt.Println("  --temp <dir>       Temporary directory for audio conversion (env: AURA_TEMP_DIR)")
	fmt.Println("  --rate <hz>        Audio sample rate (env: AURA_SAMPLE_RATE, default: 11025)")
	fmt.Println("\nUsage:")
	fmt.Println("  auramatch [global-options] add <audio_file> [--title <title>] [--artist <artist>]")
	fmt.Println("  auramatch [global-options] import <tracks.json>")
	fmt.Println("  auramatch [global-options] similar <track_id> [--start 0:30] [--end 0:45] [--step 5] [--limit 10]")
	fmt.Println("  auramatch [global-options] list")
	fmt.Println("  auramatch [global-options] delete <track_id>")
	fmt.Println("  auramatch tuning [--hour <0-23>]")
	fmt.Println("  auramatch [global-options] render <audio_file> [--out <dir>] [--tuning <440hz|432hz|528hz>]")
	fmt.Println("\nExamples:")
	fmt.Println("  # Add from local file")
	fmt.Println("  auramatch --db catalog.sqlite3 add song.mp3 --title \"Song\" --artist \"Artist\"")
	fmt.Println()
	fmt.Println("  # Import precomputed waveforms")
	fmt.Println("  auramatch import waveforms.json")
	fmt.Println()
	fmt.Println("  # Find sections like the chorus")
	fmt.Println("  auramatch similar 3f2c... --start 1:05 --end 1:20")
}
