package http

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

type pageData struct {
	ColumnOne    []FieldSpec
	ColumnTwo    []FieldSpec
	FeatureCount int
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	snapshot := a.store.Snapshot()
	fields := FormFields(snapshot.Means)

	data := pageData{FeatureCount: len(snapshot.Features)}
	for _, field := range fields {
		if field.Column == 1 {
			data.ColumnOne = append(data.ColumnOne, field)
		} else {
			data.ColumnTwo = append(data.ColumnTwo, field)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		a.logger.Warn("failed to render form page", zap.Error(err))
	}
}

var indexTemplate = template.Must(template.New("index").Parse(indexPage))

const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Channel Revenue Predictor</title>
<style>
body { font-family: Arial, sans-serif; background: #f8f9fa; margin: 40px; }
.container { max-width: 760px; margin: 0 auto; background: #fff; padding: 24px; border-radius: 10px; box-shadow: 0 0 10px rgba(0,0,0,0.1); }
.columns { display: flex; gap: 24px; }
.column { flex: 1; }
label { display: block; margin-top: 12px; font-size: 14px; color: #333; }
input { width: 100%; padding: 8px; margin-top: 4px; border: 1px solid #ccc; border-radius: 5px; box-sizing: border-box; }
button { background: #007bff; color: white; border: none; padding: 12px; border-radius: 5px; cursor: pointer; width: 100%; margin-top: 20px; font-size: 16px; }
button:hover { background: #0056b3; }
h2 { text-align: center; }
.result { margin-top: 16px; padding: 12px; border-radius: 5px; text-align: center; font-size: 18px; display: none; }
.result.ok { display: block; background: #d4edda; color: #155724; }
.result.err { display: block; background: #f8d7da; color: #721c24; }
.note { color: #888; font-size: 12px; text-align: center; margin-top: 16px; }
.feed { margin-top: 8px; font-size: 13px; color: #555; }
</style>
</head>
<body>
<div class="container">
<h2>Channel Revenue Predictor</h2>
<p>Enter your channel's key performance metrics to get an estimated revenue. Fields start at their historical averages.</p>
<div class="columns">
<div class="column">
{{range .ColumnOne}}
<label>{{.Label}}</label>
<input type="number" data-feature="{{.Name}}" value="{{printf "%.2f" .Default}}" min="{{.Min}}"{{if .Percent}} max="{{.Max}}"{{end}} step="{{.Step}}">
{{end}}
</div>
<div class="column">
{{range .ColumnTwo}}
<label>{{.Label}}</label>
<input type="number" data-feature="{{.Name}}" value="{{printf "%.2f" .Default}}" min="{{.Min}}"{{if .Percent}} max="{{.Max}}"{{end}} step="{{.Step}}">
{{end}}
</div>
</div>
<button onclick="predict()">Predict Estimated Revenue</button>
<div id="result" class="result"></div>
<div id="feed" class="feed"></div>
<p class="note">Model uses {{.FeatureCount}} features; metrics not shown above are filled with historical averages.</p>
</div>
<script>
async function predict() {
  const inputs = {};
  document.querySelectorAll('input[data-feature]').forEach(el => {
    inputs[el.dataset.feature] = parseFloat(el.value) || 0;
  });
  const box = document.getElementById('result');
  try {
    const res = await fetch('/api/predict', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({inputs: inputs})
    });
    const json = await res.json();
    if (!res.ok) {
      box.className = 'result err';
      box.innerText = 'Prediction failed: ' + json.error;
      return;
    }
    box.className = 'result ok';
    box.innerText = 'Predicted Estimated Revenue (USD): ' + json.formatted;
  } catch (e) {
    box.className = 'result err';
    box.innerText = 'Prediction failed: ' + e;
  }
}

(function() {
  const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + '/api/ws/live');
  ws.onmessage = function(ev) {
    const msg = JSON.parse(ev.data);
    if (msg.type !== 'prediction') return;
    const feed = document.getElementById('feed');
    feed.innerText = 'Latest prediction: ' + msg.data.formatted;
  };
})();
</script>
</body>
</html>
`
