// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 config 提供 AdMark 的统一配置加载：默认值 → YAML 文件 → 环境变量
三级覆盖，外加文件变更监听以支持凭据热更新。

生成后端的凭据统一用 BackendConfig 表达，经 TextService/ImageService/
VideoService 组装为各服务配置；后端激活与否由服务在每次调用时按当前
凭据解析，配合 Watcher 的重载回调即可做到不重启换 Key。
*/
package config
