package enrich_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"marque/internal/enrich"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDirectoryClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a directory client against a fake API", t, func() {
		Convey("When the handle belongs to an org", func() {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write([]byte(`{"success":1,"data":{"organization":{"sid":"REDM","name":"Red Marque","rank":"Scout"}}}`))
			}))
			defer srv.Close()
			c := enrich.NewClient(srv.URL, "test-key")

			org, err := c.FetchPlayerOrg(ctx, "Raider_X")

			Convey("Then sid, name and rank are returned", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/test-key/v1/live/user/Raider_X")
				So(org, ShouldNotBeNil)
				So(org.SID, ShouldEqual, "REDM")
				So(org.Name, ShouldEqual, "Red Marque")
				So(*org.Rank, ShouldEqual, "Scout")
			})
		})

		Convey("When the handle has no organization", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":1,"data":{"organization":{}}}`))
			}))
			defer srv.Close()
			c := enrich.NewClient(srv.URL, "test-key")

			org, err := c.FetchPlayerOrg(ctx, "Solo")

			Convey("Then nil is returned without error", func() {
				So(err, ShouldBeNil)
				So(org, ShouldBeNil)
			})
		})

		Convey("When the API reports failure", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":0}`))
			}))
			defer srv.Close()
			c := enrich.NewClient(srv.URL, "test-key")

			org, err := c.FetchPlayerOrg(ctx, "Anyone")

			So(err, ShouldBeNil)
			So(org, ShouldBeNil)
		})

		Convey("When the API returns a server error status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer srv.Close()
			c := enrich.NewClient(srv.URL, "test-key")

			org, err := c.FetchPlayerOrg(ctx, "Anyone")

			So(err, ShouldBeNil)
			So(org, ShouldBeNil)
		})

		Convey("When fetching org info with an object logo", func() {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write([]byte(`{"success":1,"data":{"name":"Red Marque","logo":{"source":"https://cdn/logo.png"},"site":"https://redmarque.example","members":42}}`))
			}))
			defer srv.Close()
			c := enrich.NewClient(srv.URL, "test-key")

			meta, err := c.FetchOrgInfo(ctx, "REDM")

			Convey("Then all metadata fields are populated", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/test-key/v1/live/organization/REDM")
				So(meta, ShouldNotBeNil)
				So(meta.SID, ShouldEqual, "REDM")
				So(*meta.Name, ShouldEqual, "Red Marque")
				So(*meta.Logo, ShouldEqual, "https://cdn/logo.png")
				So(*meta.URL, ShouldEqual, "https://redmarque.example")
				So(*meta.MemberCount, ShouldEqual, 42)
			})
		})

		Convey("When fetching org info with a string logo and partial fields", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":1,"data":{"name":"Red Marque","logo":"https://cdn/alt.png"}}`))
			}))
			defer srv.Close()
			c := enrich.NewClient(srv.URL, "test-key")

			meta, err := c.FetchOrgInfo(ctx, "REDM")

			Convey("Then absent fields stay nil", func() {
				So(err, ShouldBeNil)
				So(*meta.Logo, ShouldEqual, "https://cdn/alt.png")
				So(meta.URL, ShouldBeNil)
				So(meta.MemberCount, ShouldBeNil)
			})
		})

		Convey("When the server is unreachable", func() {
			c := enrich.NewClient("http://127.0.0.1:1", "test-key")

			_, err := c.FetchPlayerOrg(ctx, "Anyone")

			Convey("Then a transport error surfaces", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
