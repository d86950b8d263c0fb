package ai

// NamingSystemPrompt instructs the model to title detected communities.
const NamingSystemPrompt = `You are a sociologist analyzing socio-technical assemblages.
Given a list of actors in a group, provide a SHORT, THEMATIC title (max 4 words)
that describes their collective function or domain
(e.g., 'Algorithmic Surveillance Network', 'EU Compliance Layer').

Return one entry per group. Use the group identifier exactly as given
(for example "Group 3") in the "group" field and the title in the "title" field.
Do not invent groups that were not listed.`

const namingUserPrompt = "Name these groups:\n"

const (
	namingSchemaName        = "assemblage_titles"
	namingSchemaDescription = "Short thematic titles for groups of socio-technical actors"
)
