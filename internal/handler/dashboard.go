package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard serves the single-page view: a period selector, the regime
// badge, KPI tiles, both charts and the rule table. All state lives in
// query parameters; nothing is persisted between interactions.
func (h *Handler) Dashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SPX/VIX Regime Monitor</title>
<style>
body {font-family: system-ui, sans-serif; margin: 0 auto; max-width: 1080px; padding: 1rem; background: #fafcff; color: #1c2333;}
h1 {font-size: 1.4rem;}
.controls {display: flex; gap: 1rem; align-items: center; margin-bottom: 1rem;}
.badge {display: inline-block; padding: .15rem .6rem; border-radius: 999px; font-size: .85rem; font-weight: 600;}
.badge.risk-on {background: #DCFCE7; color: #14532D;}
.badge.neutral {background: #FEF9C3; color: #713F12;}
.badge.risk-off {background: #FFE4E6; color: #881337;}
.kpis {display: grid; grid-template-columns: repeat(5, 1fr); gap: .6rem; margin: 1rem 0;}
.kpi {background: #fff; border: 1px solid #e1e8f0; border-radius: 8px; padding: .6rem;}
.kpi .label {font-size: .75rem; color: #687a92;}
.kpi .value {font-size: 1.1rem; font-weight: 600;}
img.chart {width: 100%; border: 1px solid #e1e8f0; border-radius: 8px; margin-bottom: 1rem;}
table {width: 100%; border-collapse: collapse; background: #fff;}
th, td {text-align: left; padding: .45rem .6rem; border-bottom: 1px solid #e1e8f0; font-size: .85rem;}
.on {color: #14532D; font-weight: 600;}
.off {color: #881337;}
pre.debug {background: #fff; border: 1px solid #e1e8f0; padding: .6rem; overflow: auto; font-size: .75rem;}
.hidden {display: none;}
</style>
</head>
<body>
<h1>SPX/VIX Regime Monitor</h1>
<div class="controls">
  <label>Period
    <select id="period">
      <option>6mo</option><option>1y</option><option selected>2y</option>
      <option>5y</option><option>10y</option><option>max</option>
    </select>
  </label>
  <label><input type="checkbox" id="show-charts" checked> Charts</label>
  <label><input type="checkbox" id="show-debug"> Diagnostics</label>
  <span id="regime" class="badge neutral">…</span>
  <span id="updated"></span>
</div>
<div class="kpis" id="kpis"></div>
<div id="charts">
  <img class="chart" id="chart-spx" alt="SPX with SMA 90/125/150">
  <img class="chart" id="chart-vix" alt="VIX with 15/20 thresholds">
</div>
<table>
  <thead><tr><th>Strategy</th><th>Rule</th><th>State</th><th>Margin</th></tr></thead>
  <tbody id="rules"></tbody>
</table>
<pre class="debug hidden" id="debug"></pre>
<script>
const fmt = (v, d = 2) => (v === null || v === undefined) ? "—" : Number(v).toLocaleString("en-US", {minimumFractionDigits: d, maximumFractionDigits: d});
const pct = v => (v === null || v === undefined) ? "—" : (v >= 0 ? "+" : "") + Number(v).toFixed(2) + "%";

async function refresh() {
  const period = document.getElementById("period").value;
  const res = await fetch("/api/snapshot?period=" + period);
  if (!res.ok) {
    document.getElementById("regime").textContent = "data unavailable";
    return;
  }
  const s = await res.json();

  const badge = document.getElementById("regime");
  badge.textContent = s.regime.toUpperCase();
  badge.className = "badge " + s.regime;
  document.getElementById("updated").textContent = "as of " + s.fetched_at;

  document.getElementById("kpis").innerHTML = [
    ["SPX", fmt(s.spx.latest) + " (" + pct(s.spx.change_pct) + ")"],
    ["VIX", fmt(s.vix.latest) + " (" + pct(s.vix.change_pct) + ")"],
    ["SPX vs SMA90", pct(s.delta_sma90_pct)],
    ["SPX vs SMA125", pct(s.delta_sma125_pct)],
    ["SPX vs SMA150", pct(s.delta_sma150_pct)],
  ].map(([label, value]) => '<div class="kpi"><div class="label">' + label + '</div><div class="value">' + value + "</div></div>").join("");

  document.getElementById("rules").innerHTML = s.rules.map(r =>
    "<tr><td>" + r.name + "</td><td>" + r.rule.replace(/</g, "&lt;").replace(/>/g, "&gt;") + "</td><td class=\"" +
    (r.active ? "on\">ACTIVE" : "off\">INACTIVE") + "</td><td>" + r.margin + "</td></tr>").join("");

  document.getElementById("chart-spx").src = "/api/charts/spx.png?period=" + period + "&t=" + Date.now();
  document.getElementById("chart-vix").src = "/api/charts/vix.png?period=" + period + "&t=" + Date.now();
  document.getElementById("debug").textContent = JSON.stringify(s, null, 2);
}

document.getElementById("period").addEventListener("change", refresh);
document.getElementById("show-charts").addEventListener("change", e =>
  document.getElementById("charts").classList.toggle("hidden", !e.target.checked));
document.getElementById("show-debug").addEventListener("change", e =>
  document.getElementById("debug").classList.toggle("hidden", !e.target.checked));
refresh();
</script>
</body>
</html>
`
