package api

import (
	"net/http"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
)

type exerciseResponse struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Joints      []string `json:"joints"`
	Optional    []string `json:"optional,omitempty"`
	Alternating bool     `json:"alternating"`
	HoldMs      int64    `json:"hold_ms,omitempty"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

func jointNames(ids []pose.JointID) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return names
}

// ListExercises handles GET /api/exercises.
func ListExercises(w http.ResponseWriter, r *http.Request) {
	all := exercise.All()
	response := listExercisesResponse{
		Exercises: make([]exerciseResponse, 0, len(all)),
	}
	for _, c := range all {
		response.Exercises = append(response.Exercises, exerciseResponse{
			Slug:        c.Slug,
			Name:        c.Name,
			Joints:      jointNames(c.Joints),
			Optional:    jointNames(c.Optional),
			Alternating: c.Alternate,
			HoldMs:      c.Hold.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
