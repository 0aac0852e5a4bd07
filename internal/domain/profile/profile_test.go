package profile_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/adapters/session"
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/internal/domain/profile"
	"github.com/AVALorrie37/OpenRamp/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

var fixedNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func TestTokenizer_Extract(t *testing.T) {
	Convey("Given the default tokenizer", t, func() {
		tk := profile.NewTokenizer()

		Convey("When a Chinese sentence mentions Python", func() {
			ext := tk.Extract("我擅长Python开发")
			So(ext.Skills, ShouldResemble, []string{"python"})
			So(ext.Preferences, ShouldBeEmpty)
			So(ext.Confirm, ShouldBeFalse)
		})

		Convey("When skills and preferences are mixed", func() {
			ext := tk.Extract("我擅长Redis缓存优化和K8s故障排查，喜欢修bug和写文档")
			So(ext.Skills, ShouldResemble, []string{"kubernetes", "redis"})
			So(ext.Preferences, ShouldResemble, []model.ContributionType{model.ContributionBugFix, model.ContributionDocs})
		})

		Convey("When unknown tokens look like technology names", func() {
			ext := tk.Extract("I use FastAPI, PyTorch, vue3 and ASP.NET, e.g. at work")
			So(ext.Skills, ShouldContain, "fastapi")
			So(ext.Skills, ShouldContain, "pytorch")
			So(ext.Skills, ShouldContain, "vue3")
			So(ext.Skills, ShouldContain, "asp_net")
			So(ext.Skills, ShouldNotContain, "e_g")
		})

		Convey("When English phrases name contribution styles", func() {
			ext := tk.Extract("I like code review and writing tests, not docs")
			So(ext.Preferences, ShouldContain, model.ContributionReview)
			So(ext.Preferences, ShouldContain, model.ContributionTest)
			So(ext.Preferences, ShouldContain, model.ContributionDocs)
		})

		Convey("When a word merely contains a keyword", func() {
			ext := tk.Extract("latest debugging session")
			So(ext.Preferences, ShouldBeEmpty)
		})

		Convey("When experience is described", func() {
			So(tk.Extract("我是新手").Experience, ShouldEqual, model.ExperienceBeginner)
			So(tk.Extract("senior engineer, beginner at rust").Experience, ShouldEqual, model.ExperienceAdvanced)
		})

		Convey("When intents are expressed", func() {
			So(tk.Extract("确认技能").Confirm, ShouldBeTrue)
			So(tk.Extract("帮我找项目").Discover, ShouldBeTrue)
			So(tk.Extract("重新开始").Reset, ShouldBeTrue)
		})

		Convey("When everyday words collide with short skill names", func() {
			ext := tk.Extract("I want to go find something")
			So(ext.Skills, ShouldBeEmpty)
			So(ext.Discover, ShouldBeFalse)
			So(ext.Empty(), ShouldBeTrue)
			So(tk.Extract("AI is everywhere, CI too").Skills, ShouldBeEmpty)
		})

		Convey("When short skill names appear in a skill context", func() {
			So(tk.Extract("Python and Go").Skills, ShouldResemble, []string{"go", "python"})
			So(tk.Extract("I know C and R").Skills, ShouldResemble, []string{"c", "r"})
			So(tk.Extract("我会Go").Skills, ShouldResemble, []string{"go"})
		})

		Convey("When discovery is asked for in English", func() {
			So(tk.Extract("find me some projects").Discover, ShouldBeTrue)
			So(tk.Extract("search for repos").Discover, ShouldBeTrue)
			So(tk.Extract("I could not find it").Discover, ShouldBeFalse)
		})

		Convey("When the message is noise", func() {
			So(tk.Extract("嗯嗯……").Empty(), ShouldBeTrue)
			So(tk.Extract("").Empty(), ShouldBeTrue)
		})

		Convey("When an extra vocabulary entry is configured", func() {
			ext := profile.NewTokenizer("Bevy").Extract("I hack on bevy")
			So(ext.Skills, ShouldResemble, []string{"bevy"})
		})
	})
}

func TestProcessTurn(t *testing.T) {
	Convey("Given a fresh session", t, func() {
		tk := profile.NewTokenizer()
		sess := model.NewSession("u1", fixedNow)

		Convey("When the user states a skill", func() {
			res := profile.ProcessTurn(sess, tk.Extract("我擅长Python开发"))

			Convey("Then the state moves to pending without an action", func() {
				So(res.Action, ShouldEqual, profile.ActionNone)
				So(res.State, ShouldEqual, model.StatePending)
				So(res.Directive, ShouldEqual, profile.DirectiveAskConfirm)
				So(res.Profile.Skills, ShouldResemble, []string{"python"})
			})

			Convey("And confirming freezes the profile", func() {
				res = profile.ProcessTurn(sess, tk.Extract("确认技能"))
				So(res.Action, ShouldEqual, profile.ActionConfirm)
				So(res.State, ShouldEqual, model.StateConfirmed)
				So(sess.Profile, ShouldNotBeNil)
				So(sess.Profile.Skills, ShouldResemble, []string{"python"})

				Convey("And later skills do not change the frozen profile", func() {
					res = profile.ProcessTurn(sess, tk.Extract("我也会Rust，喜欢写测试"))
					So(res.State, ShouldEqual, model.StateConfirmed)
					So(res.Directive, ShouldEqual, profile.DirectivePreferencesUpdated)
					So(res.Profile.Skills, ShouldResemble, []string{"python"})
					So(res.Profile.Preferences, ShouldResemble, []model.ContributionType{model.ContributionTest})
				})

				Convey("And a discovery request yields SEARCH", func() {
					res = profile.ProcessTurn(sess, tk.Extract("帮我找项目"))
					So(res.Action, ShouldEqual, profile.ActionSearch)
					So(res.State, ShouldEqual, model.StateConfirmed)
				})

				Convey("And a reset returns to collecting", func() {
					res = profile.ProcessTurn(sess, tk.Extract("重新开始"))
					So(res.Action, ShouldEqual, profile.ActionReset)
					So(res.State, ShouldEqual, model.StateCollecting)
					So(res.Profile.Empty(), ShouldBeTrue)
					So(sess.Profile, ShouldBeNil)
					So(sess.Generation, ShouldEqual, 1)
				})
			})
		})

		Convey("When the user confirms without any skill", func() {
			res := profile.ProcessTurn(sess, tk.Extract("确认"))
			So(res.Action, ShouldEqual, profile.ActionNone)
			So(res.State, ShouldEqual, model.StateCollecting)
			So(res.Directive, ShouldEqual, profile.DirectiveAskSkills)
		})

		Convey("When a skill and a confirmation arrive together", func() {
			res := profile.ProcessTurn(sess, tk.Extract("I know Go, confirm"))
			So(res.Action, ShouldEqual, profile.ActionConfirm)
			So(res.State, ShouldEqual, model.StateConfirmed)
		})

		Convey("When nothing can be extracted", func() {
			before := sess.Clone()
			res := profile.ProcessTurn(sess, tk.Extract("嗯……"))

			Convey("Then state and draft are unchanged and a clarification is asked", func() {
				So(res.Directive, ShouldEqual, profile.DirectiveClarify)
				So(errors.Is(res.Issue, model.ErrInvalidProfileInput), ShouldBeTrue)
				So(sess.State, ShouldEqual, before.State)
				So(sess.Draft, ShouldResemble, before.Draft)
			})
		})

		Convey("When a discovery request arrives before confirmation", func() {
			res := profile.ProcessTurn(sess, tk.Extract("I write Go. find me projects"))
			So(res.Action, ShouldEqual, profile.ActionNone)
			So(res.State, ShouldEqual, model.StatePending)
		})
	})

	Convey("Given two turns applied in either order", t, func() {
		tk := profile.NewTokenizer()
		a, b := tk.Extract("I use Go and Docker"), tk.Extract("熟悉Redis, 也会Go")

		s1 := model.NewSession("x", fixedNow)
		profile.ProcessTurn(s1, a)
		profile.ProcessTurn(s1, b)
		s2 := model.NewSession("y", fixedNow)
		profile.ProcessTurn(s2, b)
		profile.ProcessTurn(s2, a)
		profile.ProcessTurn(s2, a)

		Convey("Then the skill sets are identical", func() {
			So(s1.Draft.Skills, ShouldResemble, s2.Draft.Skills)
			So(s1.Draft.Skills, ShouldResemble, []string{"docker", "go", "redis"})
		})
	})
}

type stubExtractor struct {
	ext profile.Extraction
	err error
}

func (s stubExtractor) ExtractKeywords(context.Context, string) (profile.Extraction, error) {
	return s.ext, s.err
}

func TestManager_Turn(t *testing.T) {
	Convey("Given a manager over a memory store", t, func() {
		ctx := context.Background()
		store := session.NewMemoryStore()
		m := profile.NewManager(store, profile.WithClock(func() time.Time { return fixedNow }))

		Convey("When a user chats", func() {
			res, err := m.Turn(ctx, "u1", "我擅长Python开发")
			So(err, ShouldBeNil)
			So(res.State, ShouldEqual, model.StatePending)

			Convey("Then the session and its history are persisted", func() {
				sess, ok, err := m.Session(ctx, "u1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(len(sess.History), ShouldEqual, 2)
				So(sess.History[0].Role, ShouldEqual, model.RoleUser)
				So(sess.Draft.Skills, ShouldResemble, []string{"python"})
			})
		})

		Convey("When many turns for the same user run concurrently", func() {
			var wg sync.WaitGroup
			skills := []string{"go", "rust", "java", "ruby", "php", "swift", "dart", "lua"}
			for _, s := range skills {
				wg.Add(1)
				go func(s string) {
					defer wg.Done()
					_, _ = m.Turn(ctx, "busy", fmt.Sprintf("I also know %s", s))
				}(s)
			}
			wg.Wait()

			Convey("Then no update is lost", func() {
				sess, _, err := m.Session(ctx, "busy")
				So(err, ShouldBeNil)
				So(len(sess.Draft.Skills), ShouldEqual, len(skills))
				So(len(sess.History), ShouldEqual, 2*len(skills))
			})
		})

		Convey("When an external extractor contributes tokens", func() {
			mx := profile.NewManager(store, profile.WithKeywordExtractor(stubExtractor{
				ext: profile.Extraction{Skills: []string{"Elixir", "bad token!"}, Preferences: []model.ContributionType{"review", "nonsense"}},
			}))
			res, err := mx.Turn(ctx, "u2", "hello there")
			So(err, ShouldBeNil)
			So(res.Profile.Skills, ShouldResemble, []string{"elixir"})
			So(res.Profile.Preferences, ShouldResemble, []model.ContributionType{model.ContributionReview})
		})

		Convey("When the external extractor fails", func() {
			mx := profile.NewManager(store, profile.WithKeywordExtractor(stubExtractor{err: errors.New("boom")}))
			res, err := mx.Turn(ctx, "u3", "I write Go")
			So(err, ShouldBeNil)
			So(res.Profile.Skills, ShouldResemble, []string{"go"})
		})
	})
}
