package ai

const (
	// systemPromptCurrency 通貨認識用のシステムプロンプト
	systemPromptCurrency = `You are a currency recognition expert. Analyze images of banknotes and coins to identify currency type, denomination, and quantity. Focus on UAH (Ukrainian Hryvnia), USD (US Dollar), and EUR (Euro). Return structured JSON responses.`

	// userPromptCurrency 出力スキーマを指定するユーザープロンプト
	userPromptCurrency = `Analyze this image of currency (banknotes/coins) and return ONLY a JSON object with:
{
  "currencies_detected": [
    {
      "currency_type": "UAH/USD/EUR/etc",
      "denomination": "value as string",
      "quantity": number,
      "confidence": "high/medium/low"
    }
  ],
  "total_value": "calculated total if same currency type",
  "notes": "any additional observations"
}

Rules:
- One entry per group of identical banknotes or coins.
- quantity is the number of identical items in the group (at least 1).
- Do not wrap the JSON in markdown or add any explanation.`
)
