package render

import "html/template"

// mapTemplate is the self-contained Leaflet document. Region data and the
// boundary collection are inlined as JSON so the artifact needs no server.
var mapTemplate = template.Must(template.New("leakmap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body { margin: 0; padding: 0; font-family: Arial, sans-serif; }
  #map { position: absolute; top: 80px; bottom: 0; left: 0; right: 0; }
  .map-title { text-align: center; margin: 10px 0 0 0; font-size: 24px; color: #333; }
  .map-subtitle { text-align: center; margin: 5px 0 0 0; font-size: 14px; color: #666; }
  .legend-box { position: fixed; top: 90px; right: 10px; width: 240px;
      background-color: white; border: 2px solid grey; z-index: 9999;
      font-size: 12px; padding: 10px; border-radius: 5px;
      box-shadow: 0 0 15px rgba(0,0,0,0.2); }
  .legend-box h4 { margin: 0; color: #333; }
  .legend-swatch { width: 12px; height: 12px; display: inline-block; margin-right: 8px; }
  .legend-row { margin: 5px 0; }
</style>
</head>
<body>
<h2 class="map-title"><b>{{.Title}}</b></h2>
<p class="map-subtitle">{{.Subtitle}}</p>
<div id="map"></div>

<div id="legendContainer" class="legend-box">
  <div style="display: flex; justify-content: space-between; align-items: center;">
    <h4>{{.MetricLabel}}</h4>
    <button onclick="toggleLegend()" style="border:none; background:none; font-size:16px; cursor:pointer;">&#10006;</button>
  </div>
  <div id="legendContent" style="margin-top:10px;">
    <div class="legend-row"><i class="legend-swatch" style="background: #800026;"></i>Critical (60%+ of max)</div>
    <div class="legend-row"><i class="legend-swatch" style="background: #BD0026;"></i>High (30&ndash;60%)</div>
    <div class="legend-row"><i class="legend-swatch" style="background: #E31A1C;"></i>Medium (10&ndash;30%)</div>
    <div class="legend-row"><i class="legend-swatch" style="background: #FC4E2A;"></i>Low (0&ndash;10%)</div>
    <div class="legend-row"><i class="legend-swatch" style="background: lightgray;"></i>No Data</div>
    <hr style="margin: 8px 0;">
    <small><b>Total:</b> {{.TotalLeaks}} leaks<br><b>Countries:</b> {{.Countries}}</small>
  </div>
</div>
<button id="showLegendButton" onclick="toggleLegend()"
    style="display:none; position: fixed; top: 90px; right: 10px;
           background-color: white; border: 2px solid grey; border-radius: 5px;
           padding: 5px 10px; cursor: pointer; z-index:9999;">
  Show Legend
</button>

<script>
var world = {{.GeoJSON}};
var regions = {{.Regions}};
var showMarkers = {{.ShowMarkers}};
var normalized = {{.Normalized}};

var map = L.map('map').setView([20, 0], 2);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

function regionFor(feature) {
  return regions[feature.id];
}

var choropleth = L.geoJSON(world, {
  style: function (feature) {
    var r = regionFor(feature);
    return {
      fillColor: r ? r.color : 'lightgray',
      fillOpacity: r ? 0.7 : 0.3,
      color: 'black',
      weight: 0.5,
      opacity: 0.2
    };
  },
  onEachFeature: function (feature, layer) {
    var r = regionFor(feature);
    if (!r) { return; }
    var rate = r.per_million === null ? 'n/a' : r.per_million.toFixed(2);
    var pop = r.population === null ? 'n/a' : Math.round(r.population).toLocaleString();
    var html = '<div style="font-family: Arial; width: 220px;">' +
      '<h4 style="margin: 0; color: #333;">' + r.country + '</h4>' +
      '<hr style="margin: 5px 0;">' +
      '<p style="margin: 5px 0;"><b>Leaked Domains:</b> ' + r.count + '</p>' +
      (normalized
        ? '<p style="margin: 5px 0;"><b>Population{{if .PopulationYear}} ({{.PopulationYear}}){{end}}:</b> ' + pop + '</p>' +
          '<p style="margin: 5px 0;"><b>Leaks per million:</b> ' + rate + '</p>'
        : '') +
      '<p style="margin: 5px 0;"><b>Severity:</b> ' + r.severity + '</p>' +
      '<p style="margin: 5px 0;"><b>ISO Code:</b> ' + feature.id + '</p>' +
      '</div>';
    layer.bindPopup(html, { maxWidth: 260 });
    var label = normalized ? rate + ' per million' : r.count + ' leaks';
    layer.bindTooltip(r.country + ': ' + label);
  }
}).addTo(map);

var markerLayer = L.layerGroup();
if (showMarkers) {
  Object.keys(regions).forEach(function (iso) {
    var r = regions[iso];
    if (!r.has_coords) { return; }
    L.circleMarker([r.lat, r.lon], {
      radius: r.radius,
      color: 'black',
      fillColor: r.color,
      fillOpacity: 0.7,
      weight: 2
    }).bindTooltip(r.country + ': ' + (normalized
        ? (r.per_million === null ? 'n/a' : r.per_million.toFixed(2)) + ' per million'
        : r.count + ' leaks'))
      .addTo(markerLayer);
  });
  markerLayer.addTo(map);
}

L.control.layers(null, {
  '{{.MetricLabel}}': choropleth,
  'Markers': markerLayer
}).addTo(map);

function toggleLegend() {
  var legend = document.getElementById('legendContainer');
  var showButton = document.getElementById('showLegendButton');
  if (legend.style.display === 'none') {
    legend.style.display = 'block';
    showButton.style.display = 'none';
  } else {
    legend.style.display = 'none';
    showButton.style.display = 'block';
  }
}
</script>
</body>
</html>
`))
