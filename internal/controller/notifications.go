package controller

import "context"

// NotificationController loads and acknowledges the current user's
// notifications. They are fetched on demand only.
type NotificationController struct {
	base
}

func (c *NotificationController) Load(ctx context.Context) error {
	return c.run(ctx, action{name: "load notifications", failure: "Failed to fetch notifications"}, func(ctx context.Context) error {
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}
		return c.refreshNotifications(ctx, userID)
	})
}

func (c *NotificationController) MarkRead(ctx context.Context, id string) error {
	return c.run(ctx, action{name: "mark notification read", failure: "Failed to mark notification as read"}, func(ctx context.Context) error {
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}
		if err := c.d.API.Notifications.MarkRead(ctx, id); err != nil {
			return err
		}
		return c.refreshNotifications(ctx, userID)
	})
}

func (c *NotificationController) MarkAllRead(ctx context.Context) error {
	a := action{name: "mark all notifications read", failure: "Failed to mark all notifications as read"}
	return c.run(ctx, a, func(ctx context.Context) error {
		userID, err := c.userID(ctx)
		if err != nil {
			return err
		}
		if err := c.d.API.Notifications.MarkAllRead(ctx, userID); err != nil {
			return err
		}
		return c.refreshNotifications(ctx, userID)
	})
}

// UnreadCount is derived from the loaded notifications.
func (c *NotificationController) UnreadCount() int {
	return c.d.State.UnreadCount()
}
