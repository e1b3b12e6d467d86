package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

func TestFormConversions(t *testing.T) {
	Convey("admin wire forms convert to entities and back", t, func() {
		Convey("user forms carry ids as strings", func() {
			role := uuid.New()
			form := &User{
				Label:   "alice",
				APIKeys: []string{"sk-one"},
				Roles:   []string{role.String()},
			}
			entity, err := form.Entity()
			So(err, ShouldBeNil)
			So(entity.ID, ShouldEqual, uuid.Nil)
			So(entity.Roles, ShouldResemble, []uuid.UUID{role})

			entity.ID = uuid.New()
			round := NewUser(entity)
			So(round.ID, ShouldEqual, entity.ID.String())
			So(round.Roles, ShouldResemble, []string{role.String()})
		})

		Convey("a malformed uuid is rejected", func() {
			form := &User{Label: "bob", APIKeys: []string{"sk"}, Roles: []string{"not-a-uuid"}}
			_, err := form.Entity()
			So(err, ShouldNotBeNil)
		})

		Convey("quota limits round-trip kinds and whole-second periods", func() {
			form := &Quota{
				Label: "daily",
				Limits: []Limit{
					{Count: 100, Kind: "request", PeriodSeconds: 86400},
					{Count: 50000, Kind: "token", PeriodSeconds: 60},
				},
			}
			entity, err := form.Entity()
			So(err, ShouldBeNil)
			So(entity.Limits[0].Kind, ShouldEqual, model.ItemKindRequest)
			So(entity.Limits[0].Period, ShouldEqual, 24*time.Hour)
			So(entity.Limits[1].Kind, ShouldEqual, model.ItemKindToken)

			round := NewQuota(entity)
			So(round.Limits[0].PeriodSeconds, ShouldEqual, int64(86400))
			So(round.Limits[1].Kind, ShouldEqual, "token")
		})

		Convey("model backend descriptors survive the copy both ways", func() {
			form := &Model{
				Label: "gpt-custom",
				Backend: Backend{
					Kind:         "azure",
					ModelID:      "deploy-7",
					ProxyUserIDs: true,
					BaseURL:      "https://example.openai.azure.com",
					APIKey:       "secret",
					APIVersion:   "2024-02-01",
				},
				ContextLength: 8192,
				MaxQueueSize:  16,
			}
			entity, err := form.Entity()
			So(err, ShouldBeNil)
			So(entity.Backend.Kind, ShouldEqual, model.BackendAzure)
			So(entity.Backend.ModelID, ShouldEqual, "deploy-7")
			So(entity.Backend.APIVersion, ShouldEqual, "2024-02-01")
			So(entity.Backend.ProxyUserIDs, ShouldBeTrue)

			entity.ID = uuid.New()
			round := NewModel(entity)
			So(round.Backend.Kind, ShouldEqual, "azure")
			So(round.Backend.BaseURL, ShouldEqual, form.Backend.BaseURL)
			So(round.ContextLength, ShouldEqual, 8192)
		})
	})
}
