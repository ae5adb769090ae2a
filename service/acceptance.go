package service

import (
	"net/http"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

// Acceptance runs the HTTP scenarios against any api built on a fresh
// Servicer. apiRequest prefixes the path with the api version.
func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Insert rows", func(a *biff.A) {
		resp := apiRequest("POST", "/rows").
			WithBodyJson(JSON{
				"entity_path": "world/robot",
				"rows": []JSON{
					{
						"time_point": JSON{"frame": 10},
						"components": JSON{"position": []any{1, 2}},
					},
					{
						"time_point": JSON{"frame": 20},
						"components": JSON{"position": []any{3, 4}, "color": []any{"red"}},
					},
				},
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		body := resp.BodyJsonMap()
		biff.AssertEqual(body["entity_path"], "/world/robot")
		biff.AssertEqual(len(body["row_ids"].([]interface{})), 2)

		a.Alternative("Latest at between rows", func(a *biff.A) {
			resp := apiRequest("POST", "/latest-at").
				WithBodyJson(JSON{
					"entity_path": "/world/robot",
					"timeline":    "frame",
					"at":          15,
					"components":  []string{"position", "color"},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJsonMap()
			biff.AssertEqual(body["entity_path"], "/world/robot")
			biff.AssertEqual(body["clear_index"], nil)

			components := body["components"].(map[string]interface{})
			biff.AssertEqual(len(components), 1)
			position := components["position"].(map[string]interface{})
			biff.AssertEqualJson(position["values"], []any{1, 2})
			biff.AssertEqualJson(position["index"].(map[string]interface{})["time"], 10)
		})

		a.Alternative("Latest at the end of time", func(a *biff.A) {
			resp := apiRequest("POST", "/latest-at").
				WithBodyJson(JSON{
					"entity_path": "/world/robot",
					"timeline":    "frame",
					"components":  []string{"position", "color"},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			components := resp.BodyJsonMap()["components"].(map[string]interface{})
			biff.AssertEqual(len(components), 2)
			biff.AssertEqualJson(components["color"].(map[string]interface{})["values"], []any{"red"})
		})

		a.Alternative("Late write is visible", func(a *biff.A) {
			apiRequest("POST", "/latest-at").
				WithBodyJson(JSON{
					"entity_path": "/world/robot",
					"timeline":    "frame",
					"at":          15,
					"components":  []string{"position"},
				}).Do()

			resp := apiRequest("POST", "/rows").
				WithBodyJson(JSON{
					"entity_path": "/world/robot",
					"rows": []JSON{
						{
							"time_point": JSON{"frame": 12},
							"components": JSON{"position": []any{9}},
						},
					},
				}).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusCreated)

			resp = apiRequest("POST", "/latest-at").
				WithBodyJson(JSON{
					"entity_path": "/world/robot",
					"timeline":    "frame",
					"at":          15,
					"components":  []string{"position"},
				}).Do()
			components := resp.BodyJsonMap()["components"].(map[string]interface{})
			biff.AssertEqualJson(components["position"].(map[string]interface{})["values"], []any{9})
		})

		a.Alternative("Recursive clear on the parent", func(a *biff.A) {
			resp := apiRequest("POST", "/rows").
				WithBodyJson(JSON{
					"entity_path": "/world",
					"rows": []JSON{
						{
							"time_point": JSON{"frame": 15},
							"components": JSON{"latestat.components.ClearIsRecursive": []any{true}},
						},
					},
				}).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusCreated)

			resp = apiRequest("POST", "/latest-at").
				WithBodyJson(JSON{
					"entity_path": "/world/robot",
					"timeline":    "frame",
					"at":          17,
					"components":  []string{"position"},
				}).Do()
			body := resp.BodyJsonMap()
			biff.AssertEqual(len(body["components"].(map[string]interface{})), 0)
			biff.AssertEqualJson(body["shadowed"], []any{"position"})
			biff.AssertEqualJson(body["clear_index"].(map[string]interface{})["time"], 15)
		})

		a.Alternative("Latest at many", func(a *biff.A) {
			resp := apiRequest("POST", "/latest-at-many").
				WithBodyJson(JSON{
					"entity_paths": []string{"/world/robot", "/nothing/here"},
					"timeline":     "frame",
					"at":           30,
					"components":   []string{"position"},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			results := resp.BodyJsonMap()["results"].([]interface{})
			biff.AssertEqual(len(results), 2)
			biff.AssertEqual(results[0].(map[string]interface{})["entity_path"], "/nothing/here")
			biff.AssertEqual(len(results[1].(map[string]interface{})["components"].(map[string]interface{})), 1)
		})

		a.Alternative("Stats", func(a *biff.A) {
			resp := apiRequest("GET", "/stats").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			store := resp.BodyJsonMap()["store"].(map[string]interface{})
			biff.AssertEqualJson(store["chunks"], 1)
			biff.AssertEqualJson(store["rows"], 2)
		})

		a.Alternative("Invalidate", func(a *biff.A) {
			resp := apiRequest("POST", "/invalidate").
				WithBodyJson(JSON{
					"entity_path": "/world/robot",
					"timeline":    "frame",
					"component":   "position",
					"times":       []int{10, 20},
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)
		})

		a.Alternative("Garbage collect", func(a *biff.A) {
			resp := apiRequest("POST", "/gc").
				WithBodyJson(JSON{
					"target_bytes": 0,
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{"dropped_chunks": 1})
		})
	})

	a.Alternative("Insert without entity path", func(a *biff.A) {
		resp := apiRequest("POST", "/rows").
			WithBodyJson(JSON{
				"rows": []JSON{{"time_point": JSON{"frame": 1}}},
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		biff.AssertEqualJson(resp.BodyJson(), JSON{
			"error": JSON{
				"message":     "entity path is required",
				"description": "Invalid request",
			},
		})
	})

	a.Alternative("Insert with unknown timeline kind", func(a *biff.A) {
		resp := apiRequest("POST", "/rows").
			WithBodyJson(JSON{
				"entity_path":    "/robot",
				"timeline_kinds": JSON{"frame": "sideways"},
				"rows":           []JSON{{"time_point": JSON{"frame": 1}}},
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Malformed JSON", func(a *biff.A) {
		resp := apiRequest("POST", "/latest-at").
			WithBodyString(`{"entity_path": `).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})

	a.Alternative("Query without timeline", func(a *biff.A) {
		resp := apiRequest("POST", "/latest-at").
			WithBodyJson(JSON{
				"entity_path": "/robot",
				"components":  []string{"position"},
			}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
	})
}
