// Command definitions for the tubevault CLI.
package main

import "github.com/urfave/cli/v3"

// itemFlags describe a media item passed on the command line.
func itemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "Catalog media ID",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Display title",
		},
		&cli.StringFlag{
			Name:  "channel",
			Usage: "Uploader/author label",
		},
		&cli.StringFlag{
			Name:  "thumb",
			Usage: "Thumbnail URL",
		},
	}
}

// favoritesCommand handles the favorites collection
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite items",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorites",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Fuzzy filter by title",
					},
				},
				Action: r.FavoritesList,
			},
			{
				Name:   "add",
				Usage:  "Mark an item as favorite",
				Flags:  itemFlags(),
				Action: r.FavoritesAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a favorite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.FavoritesRemove,
			},
			{
				Name:   "toggle",
				Usage:  "Toggle an item's favorite state",
				Flags:  itemFlags(),
				Action: r.FavoritesToggle,
			},
		},
	}
}

// historyCommand handles the play history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show play history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List history, most recent first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Fuzzy filter by title",
					},
				},
				Action: r.HistoryList,
			},
		},
	}
}

// playlistCommand handles playlist CRUD
func playlistCommand(r *Runner) *cli.Command {
	idFlag := &cli.Uint64Flag{
		Name:     "playlist",
		Aliases:  []string{"p"},
		Usage:    "Playlist ID",
		Required: true,
	}

	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an empty playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:   "list",
				Usage:  "List all playlists",
				Action: r.PlaylistList,
			},
			{
				Name:   "show",
				Usage:  "Show a playlist's items",
				Flags:  []cli.Flag{idFlag},
				Action: r.PlaylistShow,
			},
			{
				Name:   "rename",
				Usage:  "Rename a playlist",
				Flags:  []cli.Flag{idFlag},
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:   "add",
				Usage:  "Append an item to a playlist",
				Flags:  append(itemFlags(), idFlag),
				Action: r.PlaylistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove an item from a playlist",
				Flags: []cli.Flag{
					idFlag,
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Catalog media ID",
						Required: true,
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:   "delete",
				Usage:  "Delete a playlist",
				Flags:  []cli.Flag{idFlag},
				Action: r.PlaylistDelete,
			},
		},
	}
}

// configCommand inspects and initializes the on-disk configuration
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write the current configuration to the config directory",
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: r.ConfigShow,
			},
		},
	}
}

// playCommand drives sequential playback through the external player
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a single item or a playlist",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist ID to play sequentially",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Play,
	}
}
