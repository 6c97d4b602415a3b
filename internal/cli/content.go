package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/controller"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/model"
)

func cmdPage(ctx context.Context, c *cmdContext, args []string) error {
	path := "/"
	if len(args) > 0 {
		path = args[0]
	}
	return reported(c.app.Page(ctx, c.env.Stdout, path))
}

func cmdFeed(ctx context.Context, c *cmdContext, _ []string) error {
	return reported(c.app.Page(ctx, c.env.Stdout, "/community"))
}

// subcommand splits "create -x y" into its verb and the remaining args.
func subcommand(args []string, usage string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, apperror.ValidationFailed("command", "usage: skillflow "+usage)
	}
	return args[0], args[1:], nil
}

func unknownVerb(verb, usage string) error {
	return apperror.ValidationFailed("command", fmt.Sprintf("unknown action %q; usage: skillflow %s", verb, usage))
}

// oneID takes the single positional id left after flags.
func oneID(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", apperror.ValidationFailed("id", "expected one "+what+" id")
	}
	return args[0], nil
}

func find[T any](items []T, id string, idOf func(T) string, what string) (T, error) {
	for _, it := range items {
		if idOf(it) == id {
			return it, nil
		}
	}
	var zero T
	return zero, apperror.NotFound(what, id)
}

func readOptionalSource(path string) (*media.Source, error) {
	if path == "" {
		return nil, nil
	}
	src, err := media.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func readSources(paths []string) ([]media.Source, error) {
	srcs := make([]media.Source, 0, len(paths))
	for _, p := range paths {
		src, err := media.ReadSource(p)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

// listFlag collects a repeated flag.
type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// --- posts, likes and comments ---

func (c *cmdContext) post(ctx context.Context, id string) (model.Post, error) {
	posts, err := c.app.API.Posts.List(ctx)
	if err != nil {
		return model.Post{}, err
	}
	return find(posts, id, func(p model.Post) string { return p.ID }, "post")
}

func cmdPost(ctx context.Context, c *cmdContext, args []string) error {
	const usage = "post create -text t -media file [-tags a,b] | update <id> -text t [-media file] [-tags a,b] | delete <id>"
	verb, args, err := subcommand(args, usage)
	if err != nil {
		return err
	}

	fs := c.newFlags("post " + verb)
	text := fs.String("text", "", "description")
	mediaPath := fs.String("media", "", "image or video file")
	tags := fs.String("tags", "", "comma separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	form := func() (controller.PostForm, error) {
		src, err := readOptionalSource(*mediaPath)
		return controller.PostForm{Description: *text, Media: src, Tags: splitTags(*tags)}, err
	}

	switch verb {
	case "create":
		f, err := form()
		if err != nil {
			return err
		}
		c.app.Ctl.Posts.OpenCreate()
		return reported(c.app.Ctl.Posts.Create(ctx, f))
	case "update", "delete":
		id, err := oneID(fs.Args(), "post")
		if err != nil {
			return err
		}
		p, err := c.post(ctx, id)
		if err != nil {
			return err
		}
		if verb == "delete" {
			return reported(c.app.Ctl.Posts.Delete(ctx, p))
		}
		f, err := form()
		if err != nil {
			return err
		}
		c.app.Ctl.Posts.OpenUpdate(p)
		return reported(c.app.Ctl.Posts.Update(ctx, p, f))
	default:
		return unknownVerb(verb, usage)
	}
}

// cmdLike toggles the current user's like on a post.
func cmdLike(ctx context.Context, c *cmdContext, args []string) error {
	id, err := oneID(args, "post")
	if err != nil {
		return err
	}
	p, err := c.post(ctx, id)
	if err != nil {
		return err
	}
	if err := c.app.Ctl.Engagement.ToggleLike(ctx, p); err != nil {
		return reported(err)
	}

	userID, _ := c.app.Session.UserID(ctx)
	likes := c.app.State.Likes(p.ID)
	state := "Unliked"
	if controller.Liked(likes, userID) {
		state = "Liked"
	}
	fmt.Fprintf(c.env.Stdout, "%s. The post has %d like(s).\n", state, len(likes))
	return nil
}

func cmdComment(ctx context.Context, c *cmdContext, args []string) error {
	const usage = "comment add <post id> <text> | edit <post id> <comment id> <text> | delete <post id> <comment id>"
	verb, args, err := subcommand(args, usage)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return apperror.ValidationFailed("command", "usage: skillflow "+usage)
	}
	p, err := c.post(ctx, args[0])
	if err != nil {
		return err
	}

	switch verb {
	case "add":
		return reported(c.app.Ctl.Engagement.AddComment(ctx, p, strings.Join(args[1:], " ")))
	case "edit", "delete":
		comments, err := c.app.API.Comments.ByPost(ctx, p.ID)
		if err != nil {
			return err
		}
		cm, err := find(comments, args[1], func(cm model.Comment) string { return cm.ID }, "comment")
		if err != nil {
			return err
		}
		if verb == "delete" {
			return reported(c.app.Ctl.Engagement.DeleteComment(ctx, cm))
		}
		return reported(c.app.Ctl.Engagement.UpdateComment(ctx, cm, strings.Join(args[2:], " ")))
	default:
		return unknownVerb(verb, usage)
	}
}

// --- learning progress, skill shares, stories ---

func cmdProgress(ctx context.Context, c *cmdContext, args []string) error {
	const usage = "progress create|update <id> -name n -desc d [-routines r] [-goal g] [-done n] [-total n] | delete <id>"
	verb, args, err := subcommand(args, usage)
	if err != nil {
		return err
	}

	fs := c.newFlags("progress " + verb)
	var f controller.LearningProgressForm
	fs.StringVar(&f.PlanName, "name", "", "plan name")
	fs.StringVar(&f.Description, "desc", "", "description")
	fs.StringVar(&f.Routines, "routines", "", "routines")
	fs.StringVar(&f.Goal, "goal", "", "goal")
	fs.IntVar(&f.CompletedItems, "done", 0, "completed items")
	fs.IntVar(&f.TotalItems, "total", 0, "total items")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctl := c.app.Ctl.LearningProgress
	if verb == "create" {
		ctl.OpenCreate()
		return reported(ctl.Create(ctx, f))
	}
	if verb != "update" && verb != "delete" {
		return unknownVerb(verb, usage)
	}

	id, err := oneID(fs.Args(), "learning progress")
	if err != nil {
		return err
	}
	all, err := c.app.API.LearningProgress.List(ctx)
	if err != nil {
		return err
	}
	lp, err := find(all, id, func(lp model.LearningProgress) string { return lp.ID }, "learning progress")
	if err != nil {
		return err
	}
	if verb == "delete" {
		return reported(ctl.Delete(ctx, lp))
	}
	ctl.OpenEdit(lp)
	return reported(ctl.Update(ctx, lp, f))
}

func cmdSkillShare(ctx context.Context, c *cmdContext, args []string) error {
	const usage = "skillshare create -details d -media file... | update <id> -details d [-media file...] [-remove url...] | delete <id>"
	verb, args, err := subcommand(args, usage)
	if err != nil {
		return err
	}

	fs := c.newFlags("skillshare " + verb)
	details := fs.String("details", "", "description")
	var add, remove listFlag
	fs.Var(&add, "media", "image or video file (repeatable)")
	fs.Var(&remove, "remove", "attachment URL to drop (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	srcs, err := readSources(add)
	if err != nil {
		return err
	}
	f := controller.SkillShareForm{Details: *details, Add: srcs, Remove: remove}

	ctl := c.app.Ctl.SkillShares
	if verb == "create" {
		ctl.OpenCreate()
		return reported(ctl.Create(ctx, f))
	}
	if verb != "update" && verb != "delete" {
		return unknownVerb(verb, usage)
	}

	id, err := oneID(fs.Args(), "skill share")
	if err != nil {
		return err
	}
	all, err := c.app.API.SkillShares.List(ctx)
	if err != nil {
		return err
	}
	ss, err := find(all, id, func(ss model.SkillShare) string { return ss.ID }, "skill share")
	if err != nil {
		return err
	}
	if verb == "delete" {
		return reported(ctl.Delete(ctx, ss))
	}
	ctl.OpenUpdate(ss)
	return reported(ctl.Update(ctx, ss, f))
}

func cmdStory(ctx context.Context, c *cmdContext, args []string) error {
	const usage = "story create|update <id> -title t [-desc d] [-type t] [-minutes n] [-intensity i] [-image file] | delete <id>"
	verb, args, err := subcommand(args, usage)
	if err != nil {
		return err
	}

	fs := c.newFlags("story " + verb)
	var f controller.StoryForm
	fs.StringVar(&f.Title, "title", "", "title")
	fs.StringVar(&f.Description, "desc", "", "description")
	fs.StringVar(&f.ExerciseType, "type", "", "exercise type")
	fs.IntVar(&f.TimeDuration, "minutes", 0, "duration in minutes")
	fs.StringVar(&f.Intensity, "intensity", "", "intensity")
	image := fs.String("image", "", "image file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if f.Image, err = readOptionalSource(*image); err != nil {
		return err
	}

	ctl := c.app.Ctl.Stories
	if verb == "create" {
		ctl.OpenCreate()
		return reported(ctl.Create(ctx, f))
	}
	if verb != "update" && verb != "delete" {
		return unknownVerb(verb, usage)
	}

	id, err := oneID(fs.Args(), "story")
	if err != nil {
		return err
	}
	all, err := c.app.API.Stories.List(ctx)
	if err != nil {
		return err
	}
	st, err := find(all, id, func(st model.Story) string { return st.ID }, "story")
	if err != nil {
		return err
	}
	ctl.Open(st)
	if verb == "delete" {
		return reported(ctl.Delete(ctx, st))
	}
	return reported(ctl.Update(ctx, st, f))
}

// --- notifications and profile ---

func cmdNotifications(ctx context.Context, c *cmdContext, args []string) error {
	ctl := c.app.Ctl.Notifications
	verb := "list"
	if len(args) > 0 {
		verb = args[0]
	}

	var err error
	switch verb {
	case "list":
		err = ctl.Load(ctx)
	case "read":
		var id string
		if id, err = oneID(args[1:], "notification"); err != nil {
			return err
		}
		err = ctl.MarkRead(ctx, id)
	case "read-all":
		err = ctl.MarkAllRead(ctx)
	default:
		return unknownVerb(verb, "notifications [list|read <id>|read-all]")
	}
	if err != nil {
		return reported(err)
	}

	fmt.Fprintf(c.env.Stdout, "%d unread\n", ctl.UnreadCount())
	for _, n := range c.app.State.Notifications() {
		c.app.Renderer.Notification(c.env.Stdout, n)
	}
	return nil
}

func cmdProfile(ctx context.Context, c *cmdContext, args []string) error {
	verb := "show"
	if len(args) > 0 {
		verb, args = args[0], args[1:]
	}
	if err := c.app.Ctl.Auth.LoadCurrentUser(ctx); err != nil {
		return reported(err)
	}
	u, _ := c.app.State.CurrentUser()

	switch verb {
	case "show":
		visibility := "private"
		if u.ProfileVisibility {
			visibility = "public"
		}
		fmt.Fprintf(c.env.Stdout, "%s <%s>\n  bio:   %s\n  goals: %s\n  %s profile\n", u.Username, u.Email, u.Biography, u.FitnessGoals, visibility)
		if u.Image != "" {
			fmt.Fprintf(c.env.Stdout, "  image: %s\n", u.Image)
		}
		return nil
	case "update":
		fs := c.newFlags("profile update")
		f := controller.ProfileUpdate{Biography: u.Biography, FitnessGoals: u.FitnessGoals}
		fs.StringVar(&f.Biography, "bio", u.Biography, "biography")
		fs.StringVar(&f.FitnessGoals, "goals", u.FitnessGoals, "skill goals")
		public := fs.Bool("public", u.ProfileVisibility, "show the profile to everyone")
		image := fs.String("image", "", "new profile image")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f.Visible = public
		var err error
		if f.Image, err = readOptionalSource(*image); err != nil {
			return err
		}
		c.app.Ctl.Profile.Open()
		return reported(c.app.Ctl.Profile.Update(ctx, f))
	default:
		return unknownVerb(verb, "profile [show|update -bio b -goals g -public=true|false -image file]")
	}
}
