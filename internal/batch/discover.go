package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AudioExtensions lists the recognized source suffixes, lower-case.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".aac", ".ogg", ".wma"}

// ErrOutputCollision marks a source whose transcript name is already claimed
// by an earlier source in the same folder.
var ErrOutputCollision = errors.New("output name collides with another source")

// DiscoveryError reports that the input folder could not be listed.
type DiscoveryError struct {
	Dir string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Dir, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Job is one discovered source and where its transcript goes. Err is set at
// discovery time when the job must not be transcribed.
type Job struct {
	Source        string
	Output        string
	SegmentLength int
	Err           error
}

// Name returns the source file name without its directory.
func (j Job) Name() string {
	return filepath.Base(j.Source)
}

// Discovery is the outcome of listing an input folder.
type Discovery struct {
	Jobs    []Job
	Skipped []string
}

// IsAudioFile reports whether name ends in a recognized extension, ignoring case.
func IsAudioFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AudioExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// OutputName maps a source file name to its transcript file name.
func OutputName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".txt"
}

// Discover lists the direct entries of inputDir and returns one job per
// regular audio file, sorted by name. Entries that are not audio files are
// returned in Skipped. When several sources map to the same transcript, the
// first by name keeps it and the rest carry ErrOutputCollision.
func Discover(inputDir, outputDir string, segmentLength int) (Discovery, error) {
	// ReadDir returns entries sorted by name.
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return Discovery{}, &DiscoveryError{Dir: inputDir, Err: err}
	}

	var discovery Discovery
	claimed := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		source := filepath.Join(inputDir, name)
		if !IsAudioFile(name) || !isRegularFile(source) {
			discovery.Skipped = append(discovery.Skipped, name)
			continue
		}

		job := Job{
			Source:        source,
			Output:        filepath.Join(outputDir, OutputName(name)),
			SegmentLength: segmentLength,
		}
		// Case-insensitive filesystems map A.txt and a.txt to one file.
		key := strings.ToLower(job.Output)
		if owner, ok := claimed[key]; ok {
			job.Err = fmt.Errorf("%w: %s already writes %s", ErrOutputCollision, owner, filepath.Base(job.Output))
		} else {
			claimed[key] = name
		}
		discovery.Jobs = append(discovery.Jobs, job)
	}
	return discovery, nil
}

// isRegularFile follows symlinks so linked sources are still transcribed.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
