package online_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"fsscore/batch"
	"fsscore/bits"
	"fsscore/fsserr"
	"fsscore/online"
	"fsscore/store"
)

var _ = Describe("FSS Online Protocol", func() {
	var (
		params bits.Params
		o      *online.Online
		s0, s1 *store.Store
	)

	BeforeEach(func() {
		params = bits.Params{Lambda: 110, N: 8}
		var err error
		o, err = online.New(params, bits.BackendSHA3)
		Expect(err).NotTo(HaveOccurred())
		s0, s1 = store.New(), store.New()
	})

	loadEq := func(count int) {
		b, err := batch.KeygenEq(params, bits.BackendSHA3, count)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < count; i++ {
			s0.PushEq(b.Party0[i])
			s1.PushEq(b.Party1[i])
		}
	}

	share := func(v uint64) online.PartyShare {
		p0 := bits.RandUint64(params)
		return online.PartyShare{P0: p0, P1: params.Reduce(v - p0)}
	}

	Describe("queue discipline", func() {
		Context("when fss_eq is drained then eq is invoked again", func() {
			It("surfaces an empty-store error without losing state, and a refill lets the retry succeed with the same output as an uninterrupted run", func() {
				loadEq(1)
				x, y := share(9), share(9)

				first, err := o.Eq(s0, s1, x, y)
				Expect(err).NotTo(HaveOccurred())

				_, err = o.Eq(s0, s1, x, y)
				Expect(err).To(MatchError(fsserr.ErrEmptyStore))

				loadEq(1)
				retry, err := o.Eq(s0, s1, x, y)
				Expect(err).NotTo(HaveOccurred())
				Expect(retry.Recover(params)).To(Equal(first.Recover(params)))
			})
		})
	})

	Describe("the multi-round protocol flow", func() {
		Context("a mask build followed by its matching eval", func() {
			It("consumes exactly one fss_eq primitive per party for each completed eq run", func() {
				loadEq(2)
				Expect(s0.LenEq()).To(Equal(2))

				x, y := share(1), share(2)
				_, err := o.Eq(s0, s1, x, y)
				Expect(err).NotTo(HaveOccurred())
				Expect(s0.LenEq()).To(Equal(1))
				Expect(s1.LenEq()).To(Equal(1))

				_, err = o.Eq(s0, s1, x, y)
				Expect(err).NotTo(HaveOccurred())
				Expect(s0.LenEq()).To(Equal(0))
				Expect(s1.LenEq()).To(Equal(0))
			})
		})
	})
})
