package ring_test

import (
	"testing"

	"github.com/okian/rotorsim/internal/domain/ring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuffer(t *testing.T) {
	Convey("Given a buffer with capacity 3", t, func() {
		b := ring.New[int](3)

		Convey("When it is empty", func() {
			Convey("Then Slice should be empty but not nil", func() {
				So(b.Slice(), ShouldNotBeNil)
				So(b.Slice(), ShouldBeEmpty)
				So(b.Len(), ShouldEqual, 0)
				So(b.Cap(), ShouldEqual, 3)
			})

			Convey("And Last should report nothing", func() {
				_, ok := b.Last()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When pushing fewer elements than capacity", func() {
			So(b.Push(1), ShouldBeFalse)
			So(b.Push(2), ShouldBeFalse)

			Convey("Then elements should be kept in insertion order", func() {
				So(b.Slice(), ShouldResemble, []int{1, 2})
				last, ok := b.Last()
				So(ok, ShouldBeTrue)
				So(last, ShouldEqual, 2)
			})
		})

		Convey("When pushing past capacity", func() {
			for i := 1; i <= 7; i++ {
				b.Push(i)
			}

			Convey("Then only the newest elements remain, oldest first", func() {
				So(b.Len(), ShouldEqual, 3)
				So(b.Slice(), ShouldResemble, []int{5, 6, 7})
			})

			Convey("And the push that overflows reports eviction", func() {
				So(b.Push(8), ShouldBeTrue)
				So(b.Slice(), ShouldResemble, []int{6, 7, 8})
			})
		})

		Convey("When resetting a full buffer", func() {
			for i := 0; i < 5; i++ {
				b.Push(i)
			}
			b.Reset()

			Convey("Then it should be empty and reusable", func() {
				So(b.Len(), ShouldEqual, 0)
				b.Push(42)
				So(b.Slice(), ShouldResemble, []int{42})
			})
		})

		Convey("When mutating the returned slice", func() {
			b.Push(1)
			s := b.Slice()
			s[0] = 99

			Convey("Then the buffer should be unaffected", func() {
				So(b.Slice(), ShouldResemble, []int{1})
			})
		})
	})

	Convey("Given a buffer created with a non-positive capacity", t, func() {
		b := ring.New[string](0)

		Convey("Then it should hold a single element", func() {
			b.Push("a")
			b.Push("b")
			So(b.Cap(), ShouldEqual, 1)
			So(b.Slice(), ShouldResemble, []string{"b"})
		})
	})
}
