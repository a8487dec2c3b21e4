// Command minidb-inspect is a companion tool to minidb: it opens a database
// file and either cross-checks its contents against an independent oracle,
// serves the pager's cache metrics, or runs a small insert-latency benchmark
// and charts the result. None of this touches the REPL's input/output
// contract; it exists purely for operators poking at a file from outside.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/nrummel-labs/minidb/internal/btree"
	"github.com/nrummel-labs/minidb/internal/chart"
	"github.com/nrummel-labs/minidb/internal/crashreport"
	"github.com/nrummel-labs/minidb/internal/oracle"
	"github.com/nrummel-labs/minidb/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if len(os.Args) < 3 {
		usage()
	}
	cmd, dbPath := os.Args[1], os.Args[2]

	switch cmd {
	case "verify":
		runVerify(dbPath)
	case "metrics":
		runMetrics(dbPath)
	case "bench":
		n := 1000
		if len(os.Args) > 3 {
			parsed, err := strconv.Atoi(os.Args[3])
			if err != nil {
				fmt.Fprintln(os.Stderr, "bench: invalid row count:", os.Args[3])
				os.Exit(1)
			}
			n = parsed
		}
		runBench(dbPath, n)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: minidb-inspect <verify|metrics|bench> <db-file> [n]")
	os.Exit(1)
}

// runVerify replays table's rows against a fresh oracle built from the same
// scan and reports any disagreement. Since the oracle only ever learns about
// rows via Put during this same pass, a clean run establishes internal
// self-consistency (no duplicate keys, no corrupt row bytes) rather than
// agreement with a separately persisted ledger.
func runVerify(dbPath string) {
	table, err := btree.Open(dbPath)
	if err != nil {
		crashreport.Fatalf("minidb-inspect: open %s: %v", dbPath, err)
	}
	defer table.Close()

	oracleDir := dbPath + ".oracle"
	defer os.RemoveAll(oracleDir)
	o, err := oracle.Open(oracleDir)
	if err != nil {
		crashreport.Fatalf("minidb-inspect: open oracle: %v", err)
	}
	defer o.Close()

	cursor := table.Start()
	for !cursor.EndOfTable {
		row := storage.DeserializeRow(cursor.Value())
		if err := o.Put(row); err != nil {
			crashreport.Fatalf("minidb-inspect: mirror row %d: %v", row.ID, err)
		}
		cursor.Advance()
	}

	mismatches, err := oracle.Verify(table, o)
	if err != nil {
		crashreport.Fatalf("minidb-inspect: verify: %v", err)
	}
	if len(mismatches) == 0 {
		fmt.Println("OK: table agrees with oracle.")
		return
	}
	for _, m := range mismatches {
		fmt.Printf("MISMATCH key=%d: %s\n", m.Key, m.Reason)
	}
	os.Exit(1)
}

// runMetrics opens the database read-only (in the pager-cache sense: it
// still walks pages on demand, it just never issues inserts), walks every
// leaf once so the pager counters reflect a full scan, then serves them on
// /metrics until killed. It prints no counter values itself.
func runMetrics(dbPath string) {
	table, err := btree.Open(dbPath)
	if err != nil {
		crashreport.Fatalf("minidb-inspect: open %s: %v", dbPath, err)
	}
	defer table.Close()

	cursor := table.Start()
	for !cursor.EndOfTable {
		cursor.Advance()
	}

	http.Handle("/metrics", promhttp.HandlerFor(storage.Registry, promhttp.HandlerOpts{}))
	addr := ":9090"
	fmt.Println("serving pager metrics on", addr+"/metrics")
	if err := http.ListenAndServe(addr, nil); err != nil {
		crashreport.Fatalf("minidb-inspect: serve metrics: %v", err)
	}
}

// runBench inserts n sequential rows into a scratch table, timing each
// insert, then charts latency against row count next to dbPath.
func runBench(dbPath string, n int) {
	scratchPath := dbPath + ".bench.db"
	os.Remove(scratchPath)
	defer os.Remove(scratchPath)

	table, err := btree.Open(scratchPath)
	if err != nil {
		crashreport.Fatalf("minidb-inspect: open scratch table: %v", err)
	}
	defer table.Close()

	samples := make([]chart.Sample, 0, n)
	for i := 0; i < n; i++ {
		row, err := storage.NewRow(uint32(i), "bench", "bench@example.com")
		if err != nil {
			crashreport.Fatalf("minidb-inspect: build row %d: %v", i, err)
		}
		start := time.Now()
		if err := table.Insert(row); err != nil {
			crashreport.Fatalf("minidb-inspect: insert %d: %v", i, err)
		}
		samples = append(samples, chart.Sample{N: int64(i + 1), LatencyNs: time.Since(start).Nanoseconds()})
	}

	chartPath := dbPath + ".bench.png"
	if err := chart.SaveLatencyChart(chartPath, "minidb insert latency", samples); err != nil {
		crashreport.Fatalf("minidb-inspect: render chart: %v", err)
	}
	fmt.Printf("wrote %d samples to %s\n", len(samples), chartPath)
}
