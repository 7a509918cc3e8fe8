package ringcast_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"code.cloudfoundry.org/go-ringcast"
	"code.cloudfoundry.org/go-ringcast/ring"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Channel", func() {
	var (
		c *ringcast.Channel[int]
		r *ring.Reader[int]

		mockAlerter *mockAlerter
	)

	BeforeEach(func() {
		mockAlerter = newMockAlerter()

		var err error
		c, err = ringcast.NewChannel[int](5, ringcast.WithAlerter(mockAlerter))
		Expect(err).NotTo(HaveOccurred())

		r = c.NewReader()
	})

	It("rejects a capacity below one", func() {
		_, err := ringcast.NewChannel[int](0)
		Expect(err).To(MatchError(ring.ErrInvalidCapacity))
	})

	It("reports its capacity", func() {
		Expect(c.Cap()).To(Equal(5))
	})

	Describe("Read()", func() {
		BeforeEach(func() {
			Expect(c.Write(1, 2)).To(Succeed())
		})

		It("returns the values in write order", func() {
			Expect(c.Read(r)).To(Equal([]int{1, 2}))
		})

		It("returns nothing the second time", func() {
			_, _ = c.Read(r)
			Expect(c.Read(r)).To(BeEmpty())
			Expect(c.Read(r)).To(BeEmpty())
		})

		Context("reader created after the write", func() {
			It("does not see earlier values", func() {
				late := c.NewReader()
				Expect(c.Read(late)).To(BeEmpty())

				c.WriteOne(3)
				Expect(c.Read(late)).To(Equal([]int{3}))
			})
		})

		Context("batch larger than capacity", func() {
			It("writes nothing", func() {
				_, _ = c.Read(r)
				Expect(c.Write(1, 2, 3, 4, 5, 6)).To(MatchError(ring.ErrTooLargeWrite))
				Expect(c.Read(r)).To(BeEmpty())
			})
		})

		Context("reader from another channel", func() {
			It("fails with ErrInvalidReader", func() {
				other, err := ringcast.NewChannel[int](5)
				Expect(err).NotTo(HaveOccurred())

				_, err = c.Read(other.NewReader())
				Expect(err).To(MatchError(ring.ErrInvalidReader))
			})
		})

		Context("buffer size exceeded", func() {
			BeforeEach(func() {
				for i := 3; i <= 8; i++ {
					c.WriteOne(i)
				}
			})

			It("returns the salvage with a lost data error", func() {
				data, err := c.Read(r)
				Expect(data).To(Equal([]int{4, 5, 6, 7, 8}))

				lde, ok := ring.AsLostData[int](err)
				Expect(ok).To(BeTrue())
				Expect(lde.Lost).To(Equal(3))
				Expect(lde.Salvage).To(Equal(data))
			})
		})
	})

	Describe("TryNext()", func() {
		It("returns false without new values", func() {
			_, ok := c.TryNext(r)
			Expect(ok).To(BeFalse())
		})

		It("returns false for an invalid reader", func() {
			c.WriteOne(1)
			_, ok := c.TryNext(&ring.Reader[int]{})
			Expect(ok).To(BeFalse())
		})

		Context("buffer size exceeded", func() {
			BeforeEach(func() {
				for i := 0; i < 7; i++ {
					c.WriteOne(i)
				}
			})

			It("returns the salvage", func() {
				data, ok := c.TryNext(r)
				Expect(ok).To(BeTrue())
				Expect(data).To(Equal([]int{2, 3, 4, 5, 6}))
			})

			It("alerts with the number of lost values", func() {
				c.TryNext(r)
				Expect(mockAlerter.AlertInput.Missed).To(Receive(Equal(2)))
			})

			It("updates the reader", func() {
				c.TryNext(r)
				Expect(mockAlerter.AlertInput.Missed).To(Receive(Equal(2)))

				for i := 0; i < 11; i++ {
					c.WriteOne(i)
				}

				c.TryNext(r)
				Expect(mockAlerter.AlertInput.Missed).To(Receive(Equal(6)))
			})

			Context("read catches up with write", func() {
				BeforeEach(func() {
					c.TryNext(r)
					<-mockAlerter.AlertInput.Missed
				})

				It("does not alert", func() {
					c.WriteOne(1)
					c.TryNext(r)
					Expect(mockAlerter.AlertInput.Missed).NotTo(Receive())
				})
			})

			It("alerts every lagging reader separately", func() {
				c.WriteOne(7)
				other := c.NewReader()
				for i := 0; i < 6; i++ {
					c.WriteOne(i)
				}

				c.TryNext(r)
				c.TryNext(other)
				Expect(mockAlerter.AlertInput.Missed).To(Receive(Equal(9)))
				Expect(mockAlerter.AlertInput.Missed).To(Receive(Equal(1)))
			})
		})
	})

	Describe("concurrent readers", func() {
		It("delivers every value to every reader exactly once", func() {
			const (
				readers = 4
				total   = 1000
			)

			ch, err := ringcast.NewChannel[int](total)
			Expect(err).NotTo(HaveOccurred())

			rs := make([]*ring.Reader[int], readers)
			for i := range rs {
				rs[i] = ch.NewReader()
			}

			var wg sync.WaitGroup
			results := make([][]int, readers)
			for i := range rs {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					for len(results[i]) < total {
						data, err := ch.Read(rs[i])
						Expect(err).NotTo(HaveOccurred())
						results[i] = append(results[i], data...)
					}
				}(i)
			}

			for i := 0; i < total; i += 10 {
				Expect(ch.Write(i, i+1, i+2, i+3, i+4, i+5, i+6, i+7, i+8, i+9)).To(Succeed())
			}
			wg.Wait()

			want := make([]int, total)
			for i := range want {
				want[i] = i
			}
			for i := range results {
				Expect(results[i]).To(Equal(want))
			}
		})
	})

	Describe("logging", func() {
		It("logs lost data at warn level", func() {
			var buf bytes.Buffer
			ch, err := ringcast.NewChannel[int](2, ringcast.WithLogger(zerolog.New(&buf)))
			Expect(err).NotTo(HaveOccurred())

			lagging := ch.NewReader()
			ch.WriteOne(1)
			ch.WriteOne(2)
			ch.WriteOne(3)
			ch.TryNext(lagging)

			Expect(buf.String()).To(ContainSubstring(`"level":"warn"`))
			Expect(buf.String()).To(ContainSubstring(`"lost":1`))
		})

		It("logs an invalid reader as an error only once", func() {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
			ch, err := ringcast.NewChannel[int](2, ringcast.WithLogger(logger))
			Expect(err).NotTo(HaveOccurred())

			ch.WriteOne(1)
			for i := 0; i < 3; i++ {
				_, ok := ch.TryNext(&ring.Reader[int]{})
				Expect(ok).To(BeFalse())
			}

			Expect(strings.Count(buf.String(), `"level":"error"`)).To(Equal(1))
		})

		It("keeps polling quietly with an invalid reader", func() {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
			ch, err := ringcast.NewChannel[int](2, ringcast.WithLogger(logger))
			Expect(err).NotTo(HaveOccurred())

			p := ringcast.NewPoller[int](ch, ringcast.WithPollingInterval(time.Millisecond))
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			Expect(p.Next(ctx, &ring.Reader[int]{})).To(BeNil())
			Expect(strings.Count(buf.String(), "read failed")).To(Equal(1))
		})
	})

	Describe("metrics", func() {
		var reg *prometheus.Registry

		BeforeEach(func() {
			reg = prometheus.NewRegistry()

			var err error
			c, err = ringcast.NewChannel[int](3, ringcast.WithMetrics(reg, "events"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("counts writes, reads, lost values and rejected batches", func() {
			r := c.NewReader()
			Expect(c.Write(1, 2)).To(Succeed())
			Expect(c.Read(r)).To(HaveLen(2))

			Expect(c.Write(1, 2, 3, 4)).To(HaveOccurred())
			Expect(c.Write(3, 4, 5)).To(Succeed())
			c.WriteOne(6)
			_, err := c.Read(r)
			Expect(err).To(MatchError(ring.ErrLostData))

			Expect(counterValue(reg, "ringcast_channel_writes_total")).To(Equal(6.0))
			Expect(counterValue(reg, "ringcast_channel_reads_total")).To(Equal(5.0))
			Expect(counterValue(reg, "ringcast_channel_lost_total")).To(Equal(1.0))
			Expect(counterValue(reg, "ringcast_channel_rejected_writes_total")).To(Equal(1.0))
			Expect(counterValue(reg, "ringcast_channel_readers_total")).To(Equal(1.0))
		})

		It("fails to register the same channel name twice", func() {
			_, err := ringcast.NewChannel[int](3, ringcast.WithMetrics(reg, "events"))
			Expect(err).To(HaveOccurred())
		})
	})
})

func counterValue(reg *prometheus.Registry, name string) float64 {
	mfs, err := reg.Gather()
	Expect(err).NotTo(HaveOccurred())

	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

type mockAlerter struct {
	AlertCalled chan bool
	AlertInput  struct {
		Missed chan int
	}
}

func newMockAlerter() *mockAlerter {
	m := &mockAlerter{}
	m.AlertCalled = make(chan bool, 100)
	m.AlertInput.Missed = make(chan int, 100)
	return m
}

func (m *mockAlerter) Alert(missed int) {
	m.AlertCalled <- true
	m.AlertInput.Missed <- missed
}
