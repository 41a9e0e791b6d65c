package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/jekaa/txmap/internal/store"
	"github.com/jekaa/txmap/internal/threadlocal"
	"github.com/jekaa/txmap/mvcc"
)

func newBenchCmd() *cobra.Command {
	var workers int
	var duration time.Duration
	var writeRatio int
	var keys int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a mixed read/write workload and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeRatio < 0 || writeRatio > 100 {
				return fmt.Errorf("--write-pct must be between 0 and 100, got %d", writeRatio)
			}

			storage := store.NewMapStorage[int, int](nil)
			for i := 0; i < keys; i++ {
				storage.Insert(i, 0)
			}
			m := mvcc.UnsafeNew[int, int](threadlocal.New(), storage)

			var reads, writes atomic.Uint64
			stop := make(chan struct{})
			var wg sync.WaitGroup

			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(seed int) {
					defer wg.Done()
					i := 0
					for {
						select {
						case <-stop:
							return
						default:
						}
						key := (seed + i) % keys
						i++
						if i%100 < writeRatio {
							mvcc.Transaction(m, func(tx *mvcc.Tx[int, int, *store.MapStorage[int, int]]) any {
								if g, ok := tx.GetMut(key); ok {
									*g.Value()++
								}
								return nil
							})
							writes.Add(1)
						} else {
							mvcc.Transaction(m, func(tx *mvcc.Tx[int, int, *store.MapStorage[int, int]]) any {
								tx.Get(key)
								return nil
							})
							reads.Add(1)
						}
					}
				}(w)
			}

			time.Sleep(duration)
			close(stop)
			wg.Wait()

			total := reads.Load() + writes.Load()
			cmd.Printf("workers=%d duration=%s reads=%d writes=%d total=%d throughput=%.0f tx/s\n",
				workers, duration, reads.Load(), writes.Load(), total, float64(total)/duration.Seconds())
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 8, "number of concurrent goroutines")
	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "how long to run")
	cmd.Flags().IntVar(&writeRatio, "write-pct", 10, "percentage of transactions that write")
	cmd.Flags().IntVar(&keys, "keys", 64, "number of distinct keys to spread load across")
	return cmd
}
