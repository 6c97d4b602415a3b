package controller

import (
	"context"
	"strings"

	"github.com/sakif/skillflow/internal/model"
	"github.com/sakif/skillflow/internal/store"
)

// LearningProgressController manages learning plans.
type LearningProgressController struct {
	base
}

// LearningProgressForm holds the editable fields of a learning plan.
type LearningProgressForm struct {
	PlanName       string
	Description    string
	Routines       string
	Goal           string
	CompletedItems int
	TotalItems     int
}

func (f LearningProgressForm) validate() error {
	if err := required("planName", f.PlanName, "Please add a title"); err != nil {
		return err
	}
	return required("description", f.Description, "Please enter description")
}

func (f LearningProgressForm) apply(lp *model.LearningProgress) {
	lp.PlanName = strings.TrimSpace(f.PlanName)
	lp.Description = strings.TrimSpace(f.Description)
	lp.Routines = f.Routines
	lp.Goal = f.Goal
	lp.CompletedItems = max(f.CompletedItems, 0)
	lp.TotalItems = max(f.TotalItems, 0)
}

func (c *LearningProgressController) OpenCreate() {
	c.d.State.OpenModal(store.ModalCreateLearningProgress)
}

func (c *LearningProgressController) OpenEdit(lp model.LearningProgress) {
	c.d.State.SelectLearningProgress(&lp)
	c.d.State.OpenModal(store.ModalEditLearningProgress)
}

func (c *LearningProgressController) Create(ctx context.Context, f LearningProgressForm) error {
	a := action{
		name:    "create learning progress",
		modal:   store.ModalCreateLearningProgress,
		success: "Learning Progress created successfully!",
		failure: "Failed to create Learning Progress. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := f.validate(); err != nil {
			return err
		}
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}

		lp := model.LearningProgress{UserID: userID}
		f.apply(&lp)
		if _, err := c.d.API.LearningProgress.Create(ctx, &lp); err != nil {
			return err
		}
		return c.refreshLearningProgress(ctx)
	})
}

func (c *LearningProgressController) Update(ctx context.Context, lp model.LearningProgress, f LearningProgressForm) error {
	a := action{
		name:    "update learning progress",
		modal:   store.ModalEditLearningProgress,
		success: "Learning Progress updated successfully!",
		failure: "Failed to update Learning Progress. Please try again.",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := f.validate(); err != nil {
			return err
		}
		if err := c.requireOwner(ctx, lp.UserID, "You can only edit your own learning progress"); err != nil {
			return err
		}

		f.apply(&lp)
		if _, err := c.d.API.LearningProgress.Update(ctx, lp.ID, &lp); err != nil {
			return err
		}
		if err := c.refreshLearningProgress(ctx); err != nil {
			return err
		}
		// Keep the open detail view in step with the fresh list.
		for _, fresh := range c.d.State.LearningProgress() {
			if fresh.ID == lp.ID {
				c.d.State.SelectLearningProgress(&fresh)
				break
			}
		}
		return nil
	})
}

func (c *LearningProgressController) Delete(ctx context.Context, lp model.LearningProgress) error {
	a := action{
		name:    "delete learning progress",
		success: "Learning Progress deleted successfully",
		failure: "Failed to delete Learning Progress",
	}
	return c.run(ctx, a, func(ctx context.Context) error {
		if err := c.requireOwner(ctx, lp.UserID, "You can only delete your own learning progress"); err != nil {
			return err
		}
		if err := c.d.API.LearningProgress.Delete(ctx, lp.ID); err != nil {
			return err
		}
		return c.refreshLearningProgress(ctx)
	})
}
