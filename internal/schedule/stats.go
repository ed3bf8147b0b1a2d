package schedule

import (
	"math"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

// Summary feeds the widgets under the Gantt chart.
type Summary struct {
	Total               int     `json:"total"`
	InProd              int     `json:"inProd"`
	CompletionRate      int     `json:"completionRate"`
	ActiveWorkloadHours float64 `json:"activeWorkloadHours"`
	PendingReview       int     `json:"pendingReview"`
}

func Summarize(tasks []model.Task) Summary {
	summary := Summary{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case model.StatusInProd:
			summary.InProd++
		case model.StatusInDevelopment, model.StatusPaused:
			if budget, ok := task.Budget(); ok && budget > 0 {
				summary.ActiveWorkloadHours += budget
			}
		case model.StatusCompleted, model.StatusInTest, model.StatusInDev:
			summary.PendingReview++
		}
	}
	summary.CompletionRate = percent(summary.InProd, summary.Total)
	return summary
}

type Profile struct {
	Total             int `json:"total"`
	Completed         int `json:"completed"`
	InProgress        int `json:"inProgress"`
	Paused            int `json:"paused"`
	ToDo              int `json:"toDo"`
	CompletedPercent  int `json:"completedPercent"`
	InProgressPercent int `json:"inProgressPercent"`
	PausedPercent     int `json:"pausedPercent"`
	ToDoPercent       int `json:"toDoPercent"`
}

// ProfileFor counts the tasks assigned to userID by lifecycle bucket.
func ProfileFor(userID string, tasks []model.Task) Profile {
	var profile Profile
	for _, task := range tasks {
		if !task.AssignedTo(userID) {
			continue
		}
		profile.Total++
		switch task.Status {
		case model.StatusCompleted:
			profile.Completed++
		case model.StatusInDevelopment, model.StatusInDev:
			profile.InProgress++
		case model.StatusPaused:
			profile.Paused++
		case model.StatusNotStarted:
			profile.ToDo++
		}
	}
	profile.CompletedPercent = percent(profile.Completed, profile.Total)
	profile.InProgressPercent = percent(profile.InProgress, profile.Total)
	profile.PausedPercent = percent(profile.Paused, profile.Total)
	profile.ToDoPercent = percent(profile.ToDo, profile.Total)
	return profile
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
