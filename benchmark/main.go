// Package main provides a performance benchmarking tool for the rapor CLI.
// It generates synthetic schools of increasing size, seeds a fresh SQLite store
// for each, and measures bulk saves at several worker counts plus the report views.
// Each test runs multiple times: the first successful run is treated as cold and
// the rest are averaged as warm. Results are written as CSV for documentation.
//
// Prerequisites:
// - rapor binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated datasets and stores
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raporkit/rapor/schema"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset  string
	Command  string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir      string
	Timeout      time.Duration
	Runs         int
	Subjects     int
	Objectives   int
	Sizes        map[string]int // dataset name -> students
	DatasetOrder []string
	WorkerCounts []int
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:      os.Args[1],
		Timeout:      5 * time.Minute,
		Runs:         4,
		Subjects:     8,
		Objectives:   6,
		Sizes:        map[string]int{"small": 30, "medium": 300, "large": 3000},
		DatasetOrder: []string{"small", "medium", "large"},
		WorkerCounts: []int{1, 4, 16, 0},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the rapor binary exists and the work dir is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("rapor"); err != nil {
		return fmt.Errorf("rapor binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// runBenchmarks executes all benchmark tests across the configured dataset sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d runs, workers %v\n",
		len(config.DatasetOrder), config.Timeout, config.Runs, config.WorkerCounts)

	for _, name := range config.DatasetOrder {
		students := config.Sizes[name]
		fmt.Printf("Benchmarking %s (%d students)\n", name, students)

		dir := filepath.Join(config.WorkDir, name)
		datasetPath, gradesPath, err := writeDataset(dir, students, config.Subjects, config.Objectives)
		if err != nil {
			fmt.Printf("  Skipping %s: %v\n", name, err)
			continue
		}
		env := storeEnv(filepath.Join(dir, "rapor.db"))
		if output, err := runRapor(config, env, "store", "clear"); err != nil {
			fmt.Printf("  Warning: failed to clear store: %v\nOutput: %s\n", err, string(output))
		}
		if output, err := runRapor(config, env, "store", "seed", "--input", datasetPath); err != nil {
			fmt.Printf("  Skipping %s: seed failed: %v\nOutput: %s\n", name, err, string(output))
			continue
		}

		// Bulk saves
		for _, workers := range config.WorkerCounts {
			command := fmt.Sprintf("save/w%d", workers)
			args := []string{"save", "--input", gradesPath, "--workers", strconv.Itoa(workers)}
			results = append(results, runBenchmarkSuite(config, env, name, command, "Save completed in", args))
		}

		// Report views
		scope := []string{"--class", "C1", "--term", "T1"}
		results = append(results, runBenchmarkSuite(config, env, name, "class", "Summary completed in",
			append([]string{"class"}, scope...)))
		results = append(results, runBenchmarkSuite(config, env, name, "subject", "Summary completed in",
			append([]string{"subject", "--subject", "S1", "--sort", "final"}, scope...)))
		results = append(results, runBenchmarkSuite(config, env, name, "distribution", "Distribution completed in",
			append([]string{"distribution"}, scope...)))
	}

	return results
}

// runBenchmarkSuite runs one command several times and summarizes cold and warm timings
func runBenchmarkSuite(config BenchmarkConfig, env []string, dataset, command, completionPhrase string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	coldTime, warmTimes := runBenchmark(config, env, completionPhrase, args)

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}
	warmAvg := "TIMEOUT"
	if len(warmTimes) > 0 {
		var sum float64
		for _, t := range warmTimes {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(warmTimes)))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:  dataset,
		Command:  command,
		ColdTime: coldTimeStr,
		WarmTime: warmAvg,
	}
}

// runBenchmark executes a rapor command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, env []string, completionPhrase string, args []string) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()
		output, err := runRapor(config, env, args...)
		if err == nil && strings.Contains(string(output), completionPhrase) {
			times = append(times, time.Since(start).Seconds())
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// runRapor runs the rapor binary with the given environment, bounded by the configured timeout
func runRapor(config BenchmarkConfig, env []string, args ...string) ([]byte, error) {
	cmd := exec.Command("rapor", args...)
	cmd.Env = append(os.Environ(), env...)

	type outcome struct {
		output []byte
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		output, err := cmd.CombinedOutput()
		done <- outcome{output, err}
	}()

	select {
	case res := <-done:
		return res.output, res.err
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("timeout after %v", config.Timeout)
	}
}

// storeEnv selects a dedicated SQLite store for one dataset
func storeEnv(dbPath string) []string {
	return []string{
		"RAPOR_STORE_BACKEND=sqlite",
		"RAPOR_STORE_DB_CONNECT=" + dbPath,
		"RAPOR_COLOR=no",
	}
}

// writeDataset generates one class with the given number of students and a full grade batch
func writeDataset(dir string, students, subjects, objectives int) (datasetPath, gradesPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	data := schema.Dataset{
		Classes: []schema.Class{{ID: "C1", Name: "Kelas 5 Benchmark", GradeLevel: 5}},
		Terms:   []schema.Term{{ID: "T1", Name: "Semester Ganjil", YearLabel: "2024/2025", Half: 1}},
	}
	for s := 1; s <= subjects; s++ {
		id := fmt.Sprintf("S%d", s)
		data.Subjects = append(data.Subjects, schema.Subject{ID: id, Name: "Subject " + id})
		for o := 1; o <= objectives; o++ {
			data.Objectives = append(data.Objectives, schema.LearningObjective{
				SubjectID: id, Phase: schema.PhaseC, TermParity: schema.FirstParity,
				Ordinal: o, Description: fmt.Sprintf("Objective %d", o), RawThreshold: "75",
			})
		}
	}
	for i := 1; i <= students; i++ {
		data.Students = append(data.Students, schema.Student{
			ID: fmt.Sprintf("st%05d", i), Name: fmt.Sprintf("Student %05d", i), ClassID: "C1", Cohort: "2020",
		})
	}

	datasetPath = filepath.Join(dir, "dataset.json")
	raw, err := json.Marshal(data)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(datasetPath, raw, 0o644); err != nil {
		return "", "", err
	}

	gradesPath = filepath.Join(dir, "grades.csv")
	file, err := os.Create(gradesPath)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"student_id", "subject_id", "class_id", "term_id", "column", "value"}); err != nil {
		return "", "", err
	}
	for _, st := range data.Students {
		for _, sub := range data.Subjects {
			for o := 0; o <= objectives; o++ {
				column := "UAS"
				if o > 0 {
					column = "TP" + strconv.Itoa(o)
				}
				value := strconv.Itoa(55 + (len(st.ID)*7+o*13+len(sub.ID)*3)%45)
				if err := writer.Write([]string{st.ID, sub.ID, "C1", "T1", column, value}); err != nil {
					return "", "", err
				}
			}
		}
	}
	writer.Flush()
	return datasetPath, gradesPath, writer.Error()
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/rapor_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"dataset", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "save/", "Bulk Save:")
	printCommandSummary(results, "class", "Class Summary:")
	printCommandSummary(results, "subject", "Subject Summary:")
	printCommandSummary(results, "distribution", "Distribution:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for commands with the given prefix
func printCommandSummary(results []BenchmarkResult, prefix, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if strings.HasPrefix(result.Command, prefix) {
			fmt.Printf("  %-8s %-14s: Cold: %s, Warm: %s\n", result.Dataset, result.Command, result.ColdTime, result.WarmTime)
		}
	}
}
