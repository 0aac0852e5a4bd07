package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/session"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		s := session.NewMemoryStore()

		Convey("When reading an unknown user", func() {
			sess, ok, err := s.Get(ctx, "nobody")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(sess, ShouldBeNil)
		})

		Convey("When a session is stored and then mutated by the caller", func() {
			sess := model.NewSession("u1", time.Now())
			sess.Draft.AddSkill("go")
			So(s.Put(ctx, sess), ShouldBeNil)
			sess.Draft.AddSkill("rust")

			Convey("Then the stored copy is unaffected", func() {
				got, ok, err := s.Get(ctx, "u1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.Draft.Skills, ShouldResemble, []string{"go"})
				So(s.Len(), ShouldEqual, 1)
			})
		})
	})
}
