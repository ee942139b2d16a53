package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/location"
	"github.com/franz/clipbox/internal/report"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/unicode/norm"
)

// VideoExtensions are the default video file extensions
var VideoExtensions = []string{
	".mp4",
	".avi",
	".mkv",
	".mov",
	".wmv",
	".flv",
	".webm",
}

// ErrNoRoots is returned when a full scan is requested without any roots
var ErrNoRoots = fmt.Errorf("%w: no scan roots configured", util.ErrValidation)

// Scanner reconciles video files on disk with the store
type Scanner struct {
	store       *store.Store
	classifier  *location.Classifier
	extensions  map[string]bool
	concurrency int
	logger      *report.EventLogger
	progress    bool
	now         func() time.Time
}

// Config holds scanner configuration
type Config struct {
	Store      *store.Store
	Classifier *location.Classifier
	// Extensions replaces VideoExtensions when set
	Extensions  []string
	Concurrency int
	Logger      *report.EventLogger
	// Progress shows a progress bar when stdout is a terminal
	Progress bool
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Classifier == nil {
		cfg.Classifier = location.NewClassifier(nil, nil)
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = VideoExtensions
	}
	extMap := make(map[string]bool)
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[ext] = true
	}

	return &Scanner{
		store:       cfg.Store,
		classifier:  cfg.Classifier,
		extensions:  extMap,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		progress:    cfg.Progress,
		now:         time.Now,
	}
}

// Result summarizes a scan call
type Result struct {
	Roots             []string
	RootsSkipped      []string
	FilesFound        int
	Created           int
	Updated           int
	FilesSkipped      int
	Duplicates        int
	MarkedUnavailable int
	Errors            []error
	Duration          time.Duration
}

// ScanRoots walks every root and reconciles the store with what it finds.
// Afterwards, available videos located inside any of the roots whose
// essential filename was not seen are marked unavailable. A root that does
// not exist contributes no files, so its videos become unavailable too.
// Videos outside the roots are left alone.
func (s *Scanner) ScanRoots(ctx context.Context, roots []string) (*Result, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	return s.scan(ctx, roots, true)
}

// ScanSingleRoot reconciles the files under one root without marking any
// video unavailable. Result.FilesFound is the number of video files found.
func (s *Scanner) ScanSingleRoot(ctx context.Context, root string) (*Result, error) {
	return s.scan(ctx, []string{root}, false)
}

// walkOutcome collects what the workers learned about the filesystem
type walkOutcome struct {
	mu      sync.Mutex
	files   []*store.ScannedFile
	seen    map[string]bool
	skipped int
	errors  []error
	// directories that could not be listed; their videos keep their state
	unreadable []string
}

func (o *walkOutcome) addError(err error) {
	o.mu.Lock()
	o.errors = append(o.errors, err)
	o.mu.Unlock()
}

func (s *Scanner) scan(ctx context.Context, roots []string, full bool) (*Result, error) {
	start := s.now()
	mode := "single"
	if full {
		mode = "full"
	}

	result := &Result{}
	outcome := &walkOutcome{seen: make(map[string]bool)}

	var walkable []walkRoot
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = filepath.Clean(root)
		}
		result.Roots = append(result.Roots, abs)

		info, err := os.Stat(abs)
		switch {
		case err != nil:
			util.WarnLog("Skipping scan root %s: %v", abs, err)
			s.logger.LogScanRootSkipped(abs, err.Error())
			result.RootsSkipped = append(result.RootsSkipped, abs)
		case !info.IsDir():
			util.WarnLog("Skipping scan root %s: not a directory", abs)
			s.logger.LogScanRootSkipped(abs, "not a directory")
			result.RootsSkipped = append(result.RootsSkipped, abs)
		default:
			walkable = append(walkable, resolveRoot(abs))
		}
	}

	found, err := s.walk(ctx, outermostRoots(walkable), outcome)
	if err != nil {
		return nil, err
	}
	result.FilesFound = found
	result.FilesSkipped = outcome.skipped
	result.Errors = outcome.errors

	files := dedupe(outcome.files, &result.Duplicates)

	var created, updated []*store.ScannedFile
	var createdIDs []int64
	var downgraded []*store.Video

	err = s.store.Transaction(ctx, func(tx *store.Tx) error {
		created, updated, createdIDs, downgraded = nil, nil, nil, nil
		for _, f := range files {
			id, isNew, err := tx.UpsertScanned(ctx, f)
			if err != nil {
				return err
			}
			if isNew {
				created = append(created, f)
				createdIDs = append(createdIDs, id)
			} else {
				updated = append(updated, f)
			}
		}

		if !full {
			return nil
		}

		candidates, err := tx.ListVideos(ctx, store.VideoFilter{
			Available: store.Bool(true),
			Roots:     result.Roots,
		})
		if err != nil {
			return err
		}

		var ids []int64
		for _, v := range candidates {
			if outcome.seen[v.EssentialFilename] {
				continue
			}
			if util.WithinAny(outcome.unreadable, v.CurrentFullPath) {
				continue
			}
			ids = append(ids, v.ID)
			downgraded = append(downgraded, v)
		}
		return tx.SetAvailability(ctx, ids, false)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile scan: %w", err)
	}

	result.Created = len(created)
	result.Updated = len(updated)
	result.MarkedUnavailable = len(downgraded)
	result.Duration = s.now().Sub(start)

	for i, f := range created {
		s.logger.LogDiscovered(createdIDs[i], f.EssentialFilename, f.FullPath, f.Level)
	}
	for _, v := range downgraded {
		util.DebugLog("Unavailable: %s", v.CurrentFullPath)
		s.logger.LogUnavailable(v.ID, v.CurrentFullPath, "not found by scan")
	}
	s.logger.LogScan(mode, result.Roots, result.FilesFound, result.Created, result.MarkedUnavailable, result.Duration)

	util.SuccessLog("Scan complete: %d found, %d new, %d updated, %d marked unavailable, %d errors",
		result.FilesFound, result.Created, result.Updated, result.MarkedUnavailable, len(result.Errors))

	return result, nil
}

// walkRoot is a root as configured and the directory it resolves to
type walkRoot struct {
	root string
	dir  string
}

func resolveRoot(root string) walkRoot {
	dir, err := filepath.EvalSymlinks(root)
	if err != nil {
		dir = root
	}
	return walkRoot{root: root, dir: dir}
}

// display maps a path found under r.dir back under the configured root, so
// stored paths keep the form the user configured
func (r walkRoot) display(path string) string {
	if r.dir == r.root {
		return path
	}
	rel, err := filepath.Rel(r.dir, path)
	if err != nil {
		return path
	}
	return filepath.Join(r.root, rel)
}

// outermostRoots drops roots that resolve inside another root, and repeats
// of the same directory, so no file is walked twice
func outermostRoots(roots []walkRoot) []walkRoot {
	var kept []walkRoot
	for i, r := range roots {
		covered := false
		for j, other := range roots {
			if i == j {
				continue
			}
			if other.dir == r.dir {
				covered = j < i
			} else {
				covered = util.IsWithin(other.dir, r.dir)
			}
			if covered {
				util.DebugLog("Root %s is already covered by %s", r.root, other.root)
				break
			}
		}
		if !covered {
			kept = append(kept, r)
		}
	}
	return kept
}

// walk enumerates the roots with a worker pool and returns the number of
// video files found
func (s *Scanner) walk(ctx context.Context, roots []walkRoot, outcome *walkOutcome) (int, error) {
	filePaths := make(chan string, 100)

	var filesFound atomic.Int64
	var filesProcessed atomic.Int64

	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	var bar *progressbar.ProgressBar
	if s.progress && util.StdoutIsTerminal() && !util.IsQuiet() {
		// Indeterminate: the total is unknown until the walk ends
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	if s.progress {
		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-progressCtx.Done():
					return
				case <-ticker.C:
					found := filesFound.Load()
					processed := filesProcessed.Load()
					if bar != nil {
						bar.Describe(fmt.Sprintf("Scanning | %d found", found))
						bar.Set64(processed)
					} else if found > 0 {
						util.InfoLog("Progress: found %d video files, processed %d", found, processed)
					}
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range filePaths {
				s.processFile(path, outcome)
				filesProcessed.Add(1)
			}
		}()
	}

	var walkErr error
	for _, root := range roots {
		util.InfoLog("Scanning: %s", root.root)
		walkErr = filepath.WalkDir(root.dir, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			path = root.display(path)
			if err != nil {
				util.WarnLog("Error accessing path %s: %v", path, err)
				outcome.addError(fmt.Errorf("access error: %s: %w", path, err))
				if d == nil || d.IsDir() {
					outcome.mu.Lock()
					outcome.unreadable = append(outcome.unreadable, path)
					outcome.mu.Unlock()
				}
				return nil
			}

			if !s.IsVideoFile(path) || !isRegularFile(path, d) {
				return nil
			}

			filesFound.Add(1)
			select {
			case filePaths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if walkErr != nil {
			break
		}
	}

	close(filePaths)
	wg.Wait()
	cancelProgress()

	if bar != nil {
		bar.Finish()
	}

	if walkErr != nil {
		return 0, fmt.Errorf("walk error: %w", walkErr)
	}

	return int(filesFound.Load()), nil
}

// isRegularFile accepts regular files and symlinks that point at one.
// Linked directories are not followed.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// processFile decodes one file's name and captures its stat data
func (s *Scanner) processFile(path string, outcome *walkOutcome) {
	parsed := filename.Decode(filepath.Base(path))

	// Whatever happens next, the file exists, so its record stays available
	outcome.mu.Lock()
	outcome.seen[parsed.Essential] = true
	outcome.mu.Unlock()

	if !filename.ValidLevel(parsed.Level) {
		util.WarnLog("Skipping %s: level prefix %d out of range", path, parsed.Level)
		outcome.mu.Lock()
		outcome.skipped++
		outcome.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		util.WarnLog("Skipping %s: %v", path, err)
		outcome.mu.Lock()
		outcome.skipped++
		outcome.errors = append(outcome.errors, fmt.Errorf("stat %s: %w", path, err))
		outcome.mu.Unlock()
		return
	}

	times := util.StatTimes(info)
	file := &store.ScannedFile{
		EssentialFilename: parsed.Essential,
		FullPath:          path,
		Level:             parsed.Level,
		NeedsSelection:    parsed.NeedsSelection,
		FileSize:          info.Size(),
		Performer:         performerFor(path),
		StorageLocation:   s.classifier.Classify(path),
		Modified:          times.Modified,
		Created:           times.Created,
		ScannedAt:         s.now(),
	}

	outcome.mu.Lock()
	outcome.files = append(outcome.files, file)
	outcome.mu.Unlock()
}

// dedupe keeps one file per essential name. Files are ordered by path so the
// outcome does not depend on worker scheduling; the last path wins.
func dedupe(files []*store.ScannedFile, duplicates *int) []*store.ScannedFile {
	sort.Slice(files, func(i, j int) bool { return files[i].FullPath < files[j].FullPath })

	index := make(map[string]int, len(files))
	var out []*store.ScannedFile
	for _, f := range files {
		if i, ok := index[f.EssentialFilename]; ok {
			util.WarnLog("Duplicate essential name %q: %s supersedes %s",
				f.EssentialFilename, f.FullPath, out[i].FullPath)
			out[i] = f
			*duplicates++
			continue
		}
		index[f.EssentialFilename] = len(out)
		out = append(out, f)
	}
	return out
}

// performerFor names the performer after the file's parent directory
func performerFor(path string) string {
	return norm.NFC.String(filepath.Base(filepath.Dir(path)))
}

// IsVideoFile checks if a file has a supported video extension
func (s *Scanner) IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return s.extensions[ext]
}

// Extensions returns the configured extensions, sorted
func (s *Scanner) Extensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
