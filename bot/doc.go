// Package bot is a headless Connect-Four player for the rooms server.
//
// A Bot claims a username, joins a room, marks itself ready and answers
// every turn with the column its Strategy picks, then readies again until it
// has finished the requested number of games. Two bots in the same room play
// each other; a bot also makes a sparring partner for a human client.
//
// Usage:
//
//	b, err := bot.Dial(ctx, "localhost:12345", "bot-1", "Arena", bot.WithGames(10))
//	if err != nil {
//		return err
//	}
//	results, err := b.Run(ctx)
package bot
