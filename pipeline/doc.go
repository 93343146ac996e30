// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 pipeline 实现镜头流水编排器：脚本 → 分镜 → 关键帧 → 片段 → 导出。

编排器独占持有项目与镜头状态，每个阶段完成后经 Storage 落盘。镜头的
每类资产各自维护从 0 起单调递增的版本计数与只追加的历史日志，激活
资产是指向历史条目的指针；回滚只移动指针，从不删改历史。批量生成内
镜头严格按序处理，因为镜头 i 的衔接帧来自镜头 i-1 的成片。

片段衔接帧在每次生成时从前序镜头的当前激活末帧实时解析，回滚后
重生成下游镜头自然读到回滚后的帧。
*/
package pipeline
