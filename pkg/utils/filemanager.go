// =============================================================================
// FX Booking Transformer - File Manager Utility
// =============================================================================
//
// File handling around a transformation run:
//   - Input discovery by event file pattern
//   - Archival of processed inputs and generated outputs
//   - Output file naming
//   - Error and summary logs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful processing
//   - Output files are copied to output_archive
//   - Failed inputs stay where they are so the next run picks them up
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager owns the input, output and archive directories.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// UseTimestampSubdirs archives under YYYY/MM/DD subdirectories.
	UseTimestampSubdirs bool

	// ArchiveOnSuccess enables archival. When false the Archive methods
	// return the original path.
	ArchiveOnSuccess bool

	now func() time.Time
}

// NewFileManager creates a FileManager with archival enabled.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// EnsureDirectories creates every managed directory.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.OutputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles returns the regular files in InputDir matching any of
// patterns, sorted and without duplicates.
func (fm *FileManager) DiscoverInputFiles(patterns ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var result []string

	for _, pattern := range patterns {
		files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan input directory with %q: %w", pattern, err)
		}
		for _, file := range files {
			if _, dup := seen[file]; dup {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			seen[file] = struct{}{}
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a processed input into InputArchiveDir.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Rename fails across devices; fall back to copy and remove.
	if err := os.Rename(filePath, archivePath); err != nil {
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

// ArchiveOutputFile copies a generated output into OutputArchiveDir.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.OutputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)
	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName)
	}
	return filepath.Join(archiveDir, fileName)
}

// WriteOutput writes data to a new file in OutputDir and returns its path.
func (fm *FileManager) WriteOutput(fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(fm.OutputDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return path, nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of format.
//
// BUILT-IN PLACEHOLDERS:
//
//	{uuid}      - a random UUID
//	{timestamp} - YYYYMMDD_HHMMSS
//	{date}      - YYYYMMDD
//	{time}      - HHMMSS
//
// Any key of params is a placeholder too, e.g. {event}. Values are made safe
// for use in a file name. A missing .xml extension is added.
func GenerateOutputFileName(format string, now time.Time, params map[string]string) string {
	replacements := []string{
		"{uuid}", uuid.NewString(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		replacements = append(replacements, "{"+k+"}", sanitizeFileName(params[k]))
	}

	result := strings.NewReplacer(replacements...).Replace(format)
	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}
	return result
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// ERROR LOGGING
// =============================================================================

// ErrorLogEntry is one failure of a run.
type ErrorLogEntry struct {
	Timestamp    time.Time
	Source       string // input file or "postgres"
	Event        string
	Group        string // group key, empty for job level failures
	ErrorType    string
	ErrorMessage string
}

// WriteErrorLog writes entries to error_log_<timestamp>.txt in outputDir.
// Nothing is written when there are no entries.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := time.Now()
	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "FX Booking Transformer - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"), len(entries))

	for i, entry := range entries {
		fmt.Fprintf(w, "Error #%d\n", i+1)
		fmt.Fprintf(w, "  Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  Source:     %s\n", entry.Source)
		if entry.Event != "" {
			fmt.Fprintf(w, "  Event:      %s\n", entry.Event)
		}
		if entry.Group != "" {
			fmt.Fprintf(w, "  Group:      %s\n", entry.Group)
		}
		fmt.Fprintf(w, "  Error Type: %s\n", entry.ErrorType)
		fmt.Fprintf(w, "  Message:    %s\n\n", entry.ErrorMessage)
	}

	w.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// SUMMARY LOGGING
// =============================================================================

// ProcessingSummary describes a whole run.
type ProcessingSummary struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalJobs      int
	SuccessfulJobs int
	FailedJobs     int
	TotalRecords   int
	TotalGroups    int
	FailedGroups   int
	TotalTrades    int
	TotalExternal  int
	Published      int
	ProcessedJobs  []ProcessedJobInfo
	FailedJobsList []FailedJobInfo
}

// ProcessedJobInfo describes one successful job.
type ProcessedJobInfo struct {
	Source       string
	Event        string
	OutputFile   string
	ArchivePath  string
	Records      int
	Groups       int
	FailedGroups int
	Trades       int
	External     int
	ProcessTime  time.Duration
}

// FailedJobInfo describes one failed job.
type FailedJobInfo struct {
	Source       string
	Event        string
	ErrorMessage string
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt in outputDir.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	if err := writeSummary(file, summary); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return summaryPath, nil
}

func writeSummary(out io.Writer, summary ProcessingSummary) error {
	w := bufio.NewWriter(out)

	fmt.Fprintf(w, "FX Booking Transformer - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Jobs:         %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Records Fetched:    %d\n"+
		"  Groups:             %d\n"+
		"  Failed Groups:      %d\n"+
		"  Trades Generated:   %d\n"+
		"  External Records:   %d\n"+
		"  Published:          %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalJobs,
		summary.SuccessfulJobs,
		summary.FailedJobs,
		summary.TotalRecords,
		summary.TotalGroups,
		summary.FailedGroups,
		summary.TotalTrades,
		summary.TotalExternal,
		summary.Published)

	if len(summary.ProcessedJobs) > 0 {
		w.WriteString("Successful Jobs:\n")
		w.WriteString("--------------------------------------------------------------------------------\n")
		for _, pj := range summary.ProcessedJobs {
			fmt.Fprintf(w, "  Source:       %s\n", pj.Source)
			fmt.Fprintf(w, "  Event:        %s\n", pj.Event)
			fmt.Fprintf(w, "  Output:       %s\n", pj.OutputFile)
			fmt.Fprintf(w, "  Groups:       %d (%d failed)\n", pj.Groups, pj.FailedGroups)
			fmt.Fprintf(w, "  Trades:       %d\n", pj.Trades)
			fmt.Fprintf(w, "  Process Time: %s\n\n", pj.ProcessTime.String())
		}
	}

	if len(summary.FailedJobsList) > 0 {
		w.WriteString("Failed Jobs:\n")
		w.WriteString("--------------------------------------------------------------------------------\n")
		for _, fj := range summary.FailedJobsList {
			fmt.Fprintf(w, "  Source: %s\n", fj.Source)
			fmt.Fprintf(w, "  Event:  %s\n", fj.Event)
			fmt.Fprintf(w, "  Error:  %s\n\n", fj.ErrorMessage)
		}
	}

	w.WriteString("================================================================================\n" +
		"End of Summary\n")
	return w.Flush()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
