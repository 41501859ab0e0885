package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amaumene/cinematch/internal/apperr"
	"github.com/amaumene/cinematch/internal/models"
	"github.com/amaumene/cinematch/internal/services/tmdb"
)

func (c *cli) moviesCommand() *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:       "movies <category>",
		Short:     "List a catalog category",
		Long:      "List a catalog category: popular, trending_day, trending_week, now_playing, upcoming or top_rated.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: categoryNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := models.ParseCategory(args[0])
			if err != nil {
				return err
			}

			movies := c.app.Movies
			movies.FetchCategory(cmd.Context(), category)
			for i := 1; i < pages; i++ {
				movies.FetchMoreCategory(cmd.Context(), category)
			}

			results := movies.Category(category)
			if len(results) == 0 {
				return c.app.userError(apperr.New(apperr.KindServer, "movies."+string(category), fmt.Errorf("no results")))
			}
			printMovies(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func (c *cli) movieCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "movie <id>",
		Short: "Show a movie with its credits and similar movies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			movie := c.app.Movies.FetchMovieDetails(ctx, id)
			if movie == nil {
				return c.app.userError(apperr.New(apperr.KindNotFound, "movie.details", fmt.Errorf("movie %d", id)))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)  %.1f/10  %d min\n", movie.Title, year(movie.ReleaseDate), movie.VoteAverage, movie.Runtime)
			fmt.Fprintf(out, "Poster: %s\n", tmdb.PosterURL(movie.PosterPath, tmdb.PosterLarge))
			if len(movie.Genres) > 0 {
				names := make([]string, 0, len(movie.Genres))
				for _, g := range movie.Genres {
					names = append(names, g.Name)
				}
				fmt.Fprintf(out, "Genres: %s\n", strings.Join(names, ", "))
			}
			if movie.Overview != "" {
				fmt.Fprintf(out, "\n%s\n", movie.Overview)
			}

			if credits := c.app.Movies.FetchMovieCredits(ctx, id); credits != nil {
				for _, d := range credits.Directors() {
					fmt.Fprintf(out, "\nDirector: %s", d.Name)
				}
				fmt.Fprintln(out)
				for i, cast := range credits.Cast {
					if i == 5 {
						break
					}
					fmt.Fprintf(out, "  %s as %s\n", cast.Name, cast.Character)
				}
			}

			if similar := c.app.Movies.FetchSimilarMovies(ctx, id); len(similar) > 0 {
				fmt.Fprintln(out, "\nSimilar:")
				printMovies(out, similar)
			}
			return nil
		},
	}
}

func (c *cli) personCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "person <id>",
		Short: "Show a person and their filmography",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			person := c.app.People.FetchPersonDetails(ctx, id)
			if person == nil {
				return c.app.userError(apperr.New(apperr.KindNotFound, "person.details", fmt.Errorf("person %d", id)))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  (%s, %s)\n", person.Name, person.KnownForDepartment, person.Gender)
			if person.Birthday != nil {
				fmt.Fprintf(out, "Born: %s", *person.Birthday)
				if person.PlaceOfBirth != nil {
					fmt.Fprintf(out, " in %s", *person.PlaceOfBirth)
				}
				fmt.Fprintln(out)
			}
			if person.Biography != "" {
				fmt.Fprintf(out, "\n%s\n", person.Biography)
			}

			if credits := c.app.People.FetchPersonCredits(ctx, id); credits != nil {
				fmt.Fprintln(out, "\nFilmography:")
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, f := range credits.Filmography(20) {
					fmt.Fprintf(w, "%d\t%s\t%s\n", f.MovieID, f.Title, strings.Join(f.Roles, ", "))
				}
				_ = w.Flush()
			}
			if images := c.app.People.FetchPersonImages(ctx, id); images != nil {
				fmt.Fprintf(out, "\n%d profile pictures\n", len(images.Profiles))
			}
			return nil
		},
	}
}

func (c *cli) searchCommand() *cobra.Command {
	var more bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movies := c.app.Movies
			movies.SearchMovies(cmd.Context(), strings.Join(args, " "))
			if more {
				movies.SearchMoreMovies(cmd.Context())
			}

			results := movies.SearchResults()
			fmt.Fprintf(cmd.OutOrStdout(), "%d results for %q (page %d)\n", len(results), movies.SearchQuery(), movies.SearchPage())
			printMovies(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().BoolVar(&more, "more", false, "also load the next page")
	return cmd
}

func (c *cli) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign up, sign in, sign out or reset a password",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "signup <email> <password>",
			Short: "Create an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := c.app.Session.SignUp(cmd.Context(), args[0], args[1])
				if err != nil {
					return c.app.authError(err)
				}
				if c.app.Session.CurrentUser() == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Account %s created, confirm your email to sign in\n", user.Email)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed up and signed in as %s\n", user.Email)
				return nil
			},
		},
		&cobra.Command{
			Use:   "signin <email> <password>",
			Short: "Sign in",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := c.app.Session.SignIn(cmd.Context(), args[0], args[1])
				if err != nil {
					return c.app.authError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.Email)
				return nil
			},
		},
		&cobra.Command{
			Use:   "signout",
			Short: "Sign out",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Session.SignOut(cmd.Context()); err != nil {
					return c.app.authError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset <email>",
			Short: "Send a password reset email",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Session.ResetPassword(cmd.Context(), args[0]); err != nil {
					return c.app.authError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password reset requested for %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the profile and its lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profiles := c.app.Profiles

			profile, err := profiles.FetchProfile(ctx)
			if err != nil {
				return c.app.userError(err)
			}
			if err := profiles.FetchLists(ctx); err != nil {
				return c.app.userError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", profile.DisplayName, profile.Email)
			if profile.ProfileURL != nil {
				fmt.Fprintf(out, "Picture: %s\n", *profile.ProfileURL)
			}
			fmt.Fprintf(out, "Theme: %s  Language: %s  Notifications: %t\n",
				profile.AppSettings.Theme, profile.AppSettings.Language, profile.AppSettings.Notifications)
			fmt.Fprintf(out, "Watched: %d  Watchlist: %d\n", profile.Stats.MoviesWatched, profile.Stats.WatchlistCount)
			if len(profile.AppSettings.FavoriteGenres) > 0 {
				fmt.Fprintf(out, "Favorite genres: %s\n", joinInts(profile.AppSettings.FavoriteGenres))
			}

			for _, kind := range models.ListKinds {
				fmt.Fprintf(out, "%s: %s\n", kind, joinInts(profiles.IDs(kind)))
			}
			return nil
		},
	})

	picture := &cobra.Command{
		Use:   "picture <file>",
		Short: "Upload a new profile picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read picture: %w", err)
			}
			if _, err := c.app.Profiles.FetchProfile(cmd.Context()); err != nil {
				return c.app.userError(err)
			}
			url, err := c.app.Profiles.UpdateProfileImage(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return c.app.userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile picture: %s\n", url)
			return nil
		},
	}
	cmd.AddCommand(picture)
	return cmd
}

func (c *cli) listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Add or remove movies from watched, favorites or watchlist",
	}

	var rating float64
	add := &cobra.Command{
		Use:   "add <watched|favorites|watchlist> <movie id>",
		Short: "Add a movie to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id, err := c.prepareList(cmd, args)
			if err != nil {
				return err
			}

			profiles := c.app.Profiles
			switch kind {
			case models.ListWatched:
				var r *float64
				if cmd.Flags().Changed("rating") {
					r = &rating
				}
				err = profiles.AddToWatched(cmd.Context(), id, r)
			case models.ListFavorite:
				err = profiles.AddToFavorites(cmd.Context(), id)
			case models.ListWatchlist:
				err = profiles.AddToWatchlist(cmd.Context(), id)
			}
			if err != nil {
				return c.app.userError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, joinInts(profiles.IDs(kind)))
			return nil
		},
	}
	add.Flags().Float64Var(&rating, "rating", 0, "rating from 0 to 10 (watched only)")

	remove := &cobra.Command{
		Use:   "remove <watched|favorites|watchlist> <movie id>",
		Short: "Remove a movie from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id, err := c.prepareList(cmd, args)
			if err != nil {
				return err
			}

			profiles := c.app.Profiles
			switch kind {
			case models.ListWatched:
				err = profiles.RemoveFromWatched(cmd.Context(), id)
			case models.ListFavorite:
				err = profiles.RemoveFromFavorites(cmd.Context(), id)
			case models.ListWatchlist:
				err = profiles.RemoveFromWatchlist(cmd.Context(), id)
			}
			if err != nil {
				return c.app.userError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, joinInts(profiles.IDs(kind)))
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

// prepareList parses the arguments and loads the profile and lists so the
// membership checks see the persisted state
func (c *cli) prepareList(cmd *cobra.Command, args []string) (models.ListKind, int, error) {
	kind, err := models.ParseListKind(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := parseID(args[1])
	if err != nil {
		return "", 0, err
	}

	if _, err := c.app.Profiles.FetchProfile(cmd.Context()); err != nil {
		return "", 0, c.app.userError(err)
	}
	if err := c.app.Profiles.FetchLists(cmd.Context()); err != nil {
		return "", 0, c.app.userError(err)
	}
	return kind, id, nil
}

func (c *cli) genresCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genres",
		Short: "Manage favorite genres",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <genre id>...",
		Short: "Replace the favorite genres",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			if err := c.app.Profiles.UpdateFavoriteGenres(cmd.Context(), ids); err != nil {
				return c.app.userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Favorite genres: %s\n", joinInts(ids))
			return nil
		},
	})
	return cmd
}

func printMovies(out io.Writer, movies []models.Movie) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range movies {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\n", m.ID, m.Title, year(m.ReleaseDate), m.VoteAverage)
	}
	_ = w.Flush()
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func year(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return "----"
}

func joinInts(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ", ")
}

func categoryNames() []string {
	names := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		names = append(names, string(c))
	}
	return names
}
