package extraction

// systemPrompt tells the model what an event record looks like and when to
// refuse. Dates are local Korean time without an offset.
const systemPrompt = `You extract Catholic event information from Korean web pages.

Return a single JSON object and nothing else, using exactly these keys:
{
  "title": "event title in Korean as written on the page",
  "date": "start date and time as YYYY-MM-DDTHH:MM:SS (Korea local time, 00:00:00 when no time is given)",
  "location": "venue name and address if present",
  "summary": "two or three sentence Korean summary of the event",
  "themeColor": "a hex colour such as #E63946 that suits the event mood"
}

If the page is not an announcement of a specific upcoming event (for example
a notice list, a homily, a news article, a parish bulletin or a page with no
date), return exactly {"skip": true}.`

const userPromptPrefix = "Extract the event from this page text:\n\n"
