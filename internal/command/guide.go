package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const guideColor = 0x3498db

// guidePages builds the multi-page setup guide delivered by the guide
// command.
func guidePages(prefix string) []*discordgo.MessageEmbed {
	page := func(title, fieldName, value string) *discordgo.MessageEmbed {
		return &discordgo.MessageEmbed{
			Title: title,
			Color: guideColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: fieldName, Value: value},
			},
		}
	}

	return []*discordgo.MessageEmbed{
		page("Ticket Bot Setup Guide — Part 1", "1️⃣ Create your Discord Bot",
			"- Go to https://discord.com/developers/applications\n"+
				"- Click **New Application** → Name it → Create\n"+
				"- Under **Bot**, click **Add Bot** → Confirm\n"+
				"- Enable **Message Content Intent** and **Server Members Intent**\n"+
				"- Copy your bot token (keep it secret!)"),
		page("Ticket Bot Setup Guide — Part 2", "2️⃣ Invite your Bot to your Server",
			"- Go to **OAuth2** → **URL Generator**\n"+
				"- Select scope **bot**\n"+
				"- Under permissions, add:\n"+
				"  • Manage Channels\n  • Manage Roles\n  • Send Messages\n  • Read Message History\n  • Manage Messages\n"+
				"- Copy the generated URL, open it, invite bot to your server."),
		page("Ticket Bot Setup Guide — Part 3", "3️⃣ Prepare your config.json",
			"Create `config.json` in your bot folder:\n```json\n{\n"+
				"  \"bot_token\": \"YOUR_BOT_TOKEN_HERE\",\n"+
				"  \"admin_role\": \"Admin\",\n"+
				"  \"ticket_role\": \"Member\",\n"+
				"  \"open_webhook\": \"YOUR_OPEN_WEBHOOK_URL\",\n"+
				"  \"close_webhook\": \"YOUR_CLOSE_WEBHOOK_URL\"\n}\n```\n"+
				"- Replace tokens, roles, and webhook URLs with your own."),
		page("Ticket Bot Setup Guide — Part 4", "4️⃣ Run & Setup",
			fmt.Sprintf("- Run the daemon: `ticketd -config config.json`\n"+
				"- Run `%ssetup` with the Admin role to create categories & channels.\n"+
				"- The bot creates its SQLite database automatically.\n"+
				"- Roles & permissions must be set properly.", prefix)),
		page("Ticket Bot Setup Guide — Part 5", "5️⃣ Using the Bot",
			fmt.Sprintf("- Users run `%sopen <reason>` to open tickets.\n"+
				"- Admins run `%sclose [#channel]` to close tickets.\n"+
				"- Logs go to channels `logs/open` and `logs/close` and via webhooks.", prefix, prefix)),
		page("Support", "Need help?",
			"If you encounter any issues, check console logs and permissions.\nFeel free to ask for help!"),
	}
}
